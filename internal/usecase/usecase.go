package usecase

import (
	"context"

	"github.com/DRSN-tech/products-api/internal/domain"
)

type ProductUC interface {
	ListProducts(ctx context.Context) (*ListProductsRes, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
