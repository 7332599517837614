package http

import (
	"net/http"

	_ "github.com/DRSN-tech/products-api/docs" // регистрация swagger-документа
	"github.com/DRSN-tech/products-api/internal/cfg"
	"github.com/DRSN-tech/products-api/internal/usecase"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const apiPrefix = "/api/v1"

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует middleware и маршруты. Любая другая пара (метод, путь) отдаёт 404.
func (r *Router) Init(prUC usecase.ProductUC, appCfg *cfg.AppCfg, httpCfg *cfg.HTTPConfig) {
	r.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		AccessLog(r.logger),
		Recoverer(r.logger),
		Metrics,
		CORS,
	)

	r.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})
	r.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})

	r.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, HealthResponse{Status: "healthy", Service: appCfg.Name})
	})
	r.router.Handle("/metrics", promhttp.Handler())
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(httpCfg.SwaggerURL), // ссылка на JSON
	))

	prHandler := NewProductHandler(prUC, r.logger)
	registerProductRoutes(r.router, "", prHandler)
	registerProductRoutes(r.router, apiPrefix, prHandler)
}

func registerProductRoutes(router chi.Router, prefix string, prHandler *ProductHandler) {
	router.Get(prefix+"/products", prHandler.listProducts)
	router.Post(prefix+"/products", prHandler.createProduct)
	router.Get(prefix+"/products/{id}", prHandler.getProduct)
	router.Put(prefix+"/products/{id}", prHandler.updateProduct)
	router.Delete(prefix+"/products/{id}", prHandler.deleteProduct)
}
