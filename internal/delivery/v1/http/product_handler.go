package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/DRSN-tech/products-api/internal/usecase"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Возвращает все товары и их количество. Пагинации нет.
//	@Tags			products
//	@Produce		json
//	@Success		200	{object}	ProductListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	res, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		p.fail(w, r, err, "failed to list products")
		return
	}

	WriteSuccess(w, http.StatusOK, toProductListResponse(res))
}

// getProduct
//
//	@Summary		Получение товара
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string	true	"ID товара"
//	@Success		200	{object}	ProductResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.fail(w, r, err, "failed to get product")
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Создает товар. Существующий товар с тем же id перезаписывается.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		CreateProductRequest	true	"Товар"
//	@Success		201		{object}	ProductEnvelope
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body CreateProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.logger.Warnf("%d invalid JSON: %v", http.StatusBadRequest, err)
		invalidJSON(w, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), body.toUsecase())
	if err != nil {
		p.fail(w, r, err, "failed to create product")
		return
	}

	WriteSuccess(w, http.StatusCreated, ProductEnvelope{
		Message: "product created successfully",
		Product: toProductResponse(product),
	})
}

// updateProduct
//
//	@Summary		Обновление товара
//	@Description	Меняет только переданные поля, updated_at обновляется всегда.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"ID товара"
//	@Param			product	body		UpdateProductRequest	true	"Изменяемые поля"
//	@Success		200		{object}	ProductEnvelope
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	var body UpdateProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.logger.Warnf("%d invalid JSON: %v", http.StatusBadRequest, err)
		invalidJSON(w, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), body.toUsecase(id))
	if err != nil {
		p.fail(w, r, err, "failed to update product")
		return
	}

	WriteSuccess(w, http.StatusOK, ProductEnvelope{
		Message: "product updated successfully",
		Product: toProductResponse(product),
	})
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string	true	"ID товара"
//	@Success		200	{object}	MessageResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.fail(w, r, err, "failed to delete product")
		return
	}

	WriteSuccess(w, http.StatusOK, MessageResponse{Message: "product deleted successfully"})
}

// fail пишет ответ с ошибкой. Ошибки хранилища логируются целиком, клиенту уходит только internalMsg.
func (p *ProductHandler) fail(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	switch e.KindOf(err) {
	case e.KindStorage:
		p.logger.Errorf(err, "%s, request_id: %s", internalMsg, middleware.GetReqID(r.Context()))
	case e.KindValidation:
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
	default:
		p.logger.Debugf("%d %s", http.StatusNotFound, err.Error())
	}

	WriteError(w, err, internalMsg)
}

// productID: хвостовой сегмент пути. Если в пути есть экранированные символы
// (например %2F), chi матчит по RawPath и отдаёт параметр в экранированном виде.
func productID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			return "", false
		}
		id = unescaped
	}
	return id, strings.TrimSpace(id) != ""
}
