package http

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/usecase"
	"github.com/shopspring/decimal"
)

// ProductResponse отдаёт цену JSON-числом без потери точности.
type ProductResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price" swaggertype:"number" example:"19.99"`
	Stock       int64       `json:"stock"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int               `json:"count"`
}

type ProductEnvelope struct {
	Message string          `json:"message"`
	Product ProductResponse `json:"product"`
}

type CreateProductRequest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price,omitempty" swaggertype:"number"`
	Stock       int64            `json:"stock"`
}

// UpdateProductRequest: отсутствующие поля не меняются.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" swaggertype:"number"`
	Stock       *int64           `json:"stock,omitempty"`
}

func (c *CreateProductRequest) toUsecase() *usecase.CreateProductReq {
	price := decimal.Zero
	if c.Price != nil {
		price = *c.Price
	}
	return usecase.NewCreateProductReq(c.ID, c.Name, c.Description, price, c.Stock)
}

func (u *UpdateProductRequest) toUsecase(id string) *usecase.UpdateProductReq {
	return &usecase.UpdateProductReq{
		ID:          id,
		Name:        u.Name,
		Description: u.Description,
		Price:       u.Price,
		Stock:       u.Stock,
	}
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.String()),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductListResponse(res *usecase.ListProductsRes) ProductListResponse {
	products := make([]ProductResponse, 0, len(res.Products))
	for i := range res.Products {
		products = append(products, toProductResponse(&res.Products[i]))
	}
	return ProductListResponse{Products: products, Count: res.Count}
}
