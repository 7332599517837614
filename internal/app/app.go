package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/products-api/internal/cfg"
	v1Http "github.com/DRSN-tech/products-api/internal/delivery/v1/http"
	"github.com/DRSN-tech/products-api/internal/infrastructure/kafka"
	"github.com/DRSN-tech/products-api/internal/repository/dynamo"
	"github.com/DRSN-tech/products-api/internal/repository/instrumented"
	"github.com/DRSN-tech/products-api/internal/repository/memory"
	"github.com/DRSN-tech/products-api/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/products-api/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/products-api/internal/repository/redis"
	redisConv "github.com/DRSN-tech/products-api/internal/repository/redis/converter"
	"github.com/DRSN-tech/products-api/internal/usecase"
	"github.com/DRSN-tech/products-api/pkg/clients"
	"github.com/DRSN-tech/products-api/pkg/closer"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/DRSN-tech/products-api/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus"
)

const initTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	httpSrv *v1Http.Server
	closer  *closer.Closer
}

// NewApp собирает зависимости. Всё, что успело открыться до ошибки, закрывается.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	cl := closer.New(0)
	fail := func(err error) (*App, error) {
		if closeErr := cl.Close(context.Background()); closeErr != nil {
			log.Warnf("cleanup after failed init: %v", closeErr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	productRepo, err := initProductRepo(ctx, cfg, log, cl)
	if err != nil {
		return fail(err)
	}
	productRepo = instrumented.NewProductRepo(
		productRepo,
		instrumented.NewStoreMetrics(prometheus.DefaultRegisterer, cfg.Store.Backend),
	)

	var cacheRepo usecase.CacheRepository
	if cfg.Redis.Enabled {
		redisClient := clients.NewRedisClient(cfg.Redis)
		cl.Add("redis", redisClient.Close)
		if err := redisClient.Ping(ctx); err != nil {
			log.Errorf(err, "failed to connect to redis")
			return fail(err)
		}
		cacheRepo = redis.NewCacheRepo(redisClient.Client, redisConv.NewProductConverterImpl(), cfg.Redis, log)
		log.Infof("redis cache enabled: %s", cfg.Redis.Addr)
	}

	var publisher usecase.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(log, cfg.Kafka, cfg.App.Name)
		cl.Add("kafka", producer.Close)
		publisher = producer
		log.Infof("kafka events enabled, topic: %s", cfg.Kafka.Topic)
	}

	productUC := usecase.NewProductUC(productRepo, cacheRepo, publisher, log)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(productUC, cfg.App, cfg.Http)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	// HTTP-сервер регистрируется последним, чтобы закрыться первым
	cl.Add("http", httpSrv.Stop)

	return &App{
		cfg:     cfg,
		logger:  log,
		httpSrv: httpSrv,
		closer:  cl,
	}, nil
}

func initProductRepo(ctx context.Context, cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.ProductRepository, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Warnf("using in-memory store, data is lost on restart")
		return memory.NewProductRepo(), nil

	case config.BackendPostgres:
		db, err := initPGDB(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		cl.Add("postgres", func(context.Context) error {
			db.Close()
			return nil
		})
		return pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverterImpl()), nil

	default:
		client, err := clients.NewDynamoDBClient(ctx, cfg.Dynamo)
		if err != nil {
			log.Errorf(err, "failed to initialize dynamodb client")
			return nil, err
		}
		if err := clients.PingDynamoDB(ctx, client, cfg.Dynamo.Table); err != nil {
			log.Errorf(err, "dynamodb table %s is not reachable", cfg.Dynamo.Table)
			return nil, err
		}
		log.Infof("dynamodb store ready, table: %s", cfg.Dynamo.Table)
		return dynamo.NewProductRepo(client, cfg.Dynamo.Table), nil
	}
}

func initPGDB(ctx context.Context, log logger.Logger, cfg *config.Config) (*postgres.Database, error) {
	db, err := postgres.Open(ctx, cfg.Db)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Migrate(log); err != nil {
		log.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// Run блокируется до сигнала завершения или падения HTTP-сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		appErr = errors.Join(appErr, err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}
