package usecase

import (
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/shopspring/decimal"
)

// PRODUCT USECASE

type CreateProductReq struct {
	ID          string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	Price       decimal.Decimal
	Stock       int64 `validate:"gte=0"`
}

// UpdateProductReq — запрос на частичное обновление. nil-поля не изменяются.
type UpdateProductReq struct {
	ID          string  `validate:"required"`
	Name        *string `validate:"omitnil,min=1"`
	Description *string
	Price       *decimal.Decimal
	Stock       *int64 `validate:"omitnil,gte=0"`
}

type ListProductsRes struct {
	Products []domain.Product
	Count    int
}

// INFRASTRUCTURE

type ProductEventType string

const (
	ProductCreated ProductEventType = "product.created"
	ProductUpdated ProductEventType = "product.updated"
	ProductDeleted ProductEventType = "product.deleted"
)

// ProductEvent описывает изменение продукта. Product == nil для удаления.
type ProductEvent struct {
	Type       ProductEventType
	ProductID  string
	Product    *domain.Product
	OccurredAt time.Time
}

// MAPPERS

func NewCreateProductReq(id, name, description string, price decimal.Decimal, stock int64) *CreateProductReq {
	return &CreateProductReq{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
	}
}

func NewListProductsRes(products []domain.Product) *ListProductsRes {
	return &ListProductsRes{
		Products: products,
		Count:    len(products),
	}
}

func NewProductEvent(eventType ProductEventType, id string, product *domain.Product, occurredAt time.Time) *ProductEvent {
	return &ProductEvent{
		Type:       eventType,
		ProductID:  id,
		Product:    product,
		OccurredAt: occurredAt,
	}
}
