package instrumented

import (
	"context"
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/usecase"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics — латентность операций хранилища по операции и исходу.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
}

func NewStoreMetrics(reg prometheus.Registerer, backend string) *StoreMetrics {
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "products_api_store_operation_duration_seconds",
			Help:        "Product store operation duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"backend": backend},
		},
		[]string{"operation", "outcome"},
	)
	reg.MustRegister(duration)

	return &StoreMetrics{duration: duration}
}

func (m *StoreMetrics) observe(operation string, start time.Time, err error) {
	m.duration.WithLabelValues(operation, outcome(err)).Observe(time.Since(start).Seconds())
}

// outcome: ok | not_found | error. Ошибки валидации до хранилища не доходят.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if e.KindOf(err) == e.KindNotFound {
		return "not_found"
	}
	return "error"
}

// ProductRepo оборачивает любой usecase.ProductRepository и замеряет каждую операцию.
type ProductRepo struct {
	next    usecase.ProductRepository
	metrics *StoreMetrics
}

func NewProductRepo(next usecase.ProductRepository, metrics *StoreMetrics) *ProductRepo {
	return &ProductRepo{next: next, metrics: metrics}
}

func (p *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	start := time.Now()
	product, err := p.next.Get(ctx, id)
	p.metrics.observe("get", start, err)
	return product, err
}

func (p *ProductRepo) Put(ctx context.Context, product *domain.Product) error {
	start := time.Now()
	err := p.next.Put(ctx, product)
	p.metrics.observe("put", start, err)
	return err
}

func (p *ProductRepo) ConditionalUpdate(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	start := time.Now()
	product, err := p.next.ConditionalUpdate(ctx, id, patch)
	p.metrics.observe("update", start, err)
	return product, err
}

func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := p.next.Delete(ctx, id)
	p.metrics.observe("delete", start, err)
	return err
}

func (p *ProductRepo) ScanAll(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	products, err := p.next.ScanAll(ctx)
	p.metrics.observe("scan", start, err)
	return products, err
}
