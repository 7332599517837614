package usecase

import (
	"context"

	"github.com/DRSN-tech/products-api/internal/domain"
)

// ProductRepository — key-value хранилище продуктов по первичному ключу.
// Get, ConditionalUpdate и Delete возвращают e.ErrProductNotFound, если записи нет.
type ProductRepository interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Put(ctx context.Context, product *domain.Product) error
	ConditionalUpdate(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// ScanAll возвращает всю коллекцию, пагинации нет.
	ScanAll(ctx context.Context) ([]domain.Product, error)
}

// CacheRepository — необязательный кэш карточек продукта. Промах: (nil, nil).
// SetProduct только заполняет промах: он не перезаписывает существующую запись
// и не затирает недавнюю инвалидацию, сделанную DeleteProduct.
type CacheRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// EventPublisher публикует события изменения продуктов.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event *ProductEvent) error
}
