package memory

import (
	"context"
	"sync"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/pkg/e"
)

// ProductRepo — хранилище продуктов в памяти процесса. Мьютекс защищает только map:
// каждая операция атомарна сама по себе, как и в DynamoDB.
type ProductRepo struct {
	mu sync.RWMutex
	m  map[string]domain.Product
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{m: make(map[string]domain.Product)}
}

func (r *ProductRepo) Get(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.m[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &p, nil
}

func (r *ProductRepo) Put(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.m[product.ID] = *product
	return nil
}

func (r *ProductRepo) ConditionalUpdate(_ context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.m[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}

	updated := p.Apply(patch)
	r.m[id] = updated
	return &updated, nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.m, id)
	return nil
}

func (r *ProductRepo) ScanAll(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.m))
	for _, p := range r.m {
		out = append(out, p)
	}
	return out, nil
}
