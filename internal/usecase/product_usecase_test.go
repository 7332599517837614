package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/repository/memory"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ProductEvent
	err    error
}

func (r *recordingPublisher) PublishProductEvent(_ context.Context, ev *ProductEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return r.err
}

func (r *recordingPublisher) types() []ProductEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProductEventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type failingRepo struct {
	*memory.ProductRepo
}

func (failingRepo) ScanAll(context.Context) ([]domain.Product, error) {
	return nil, e.Storage("failingRepo.ScanAll", errors.New("connection reset"))
}

// fixedClock возвращает часы, которые сдвигаются на step при каждом вызове.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

func newTestUC(t *testing.T) (*ProductUseCase, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	uc := NewProductUC(memory.NewProductRepo(), nil, pub, logger.NewNopLogger())
	return uc, pub
}

func ptr[T any](v T) *T { return &v }

func TestCreateThenGet_Defaults(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)

	got, err := uc.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, int64(0), got.Stock)
	assert.True(t, got.Price.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestUpdate_OnlySuppliedFieldsAndRefreshesUpdatedAt(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)

	updated, err := uc.UpdateProduct(ctx, &UpdateProductReq{ID: "p1", Stock: ptr(int64(5))})
	require.NoError(t, err)

	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, int64(5), updated.Stock)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdate_UpdatedAtStrictlyIncreasesWithFrozenClock(t *testing.T) {
	uc, _ := newTestUC(t)
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	uc.now = fixedClock(frozen, 0)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)

	first, err := uc.UpdateProduct(ctx, &UpdateProductReq{ID: "p1"})
	require.NoError(t, err)
	second, err := uc.UpdateProduct(ctx, &UpdateProductReq{ID: "p1"})
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(frozen))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, frozen, second.CreatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	uc, pub := newTestUC(t)

	_, err := uc.UpdateProduct(context.Background(), &UpdateProductReq{ID: "ghost", Stock: ptr(int64(1))})
	assert.Equal(t, e.KindNotFound, e.KindOf(err))
	assert.Empty(t, pub.types())
}

func TestDelete_TwiceIsNotFound(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteProduct(ctx, "p1"))

	_, err = uc.GetProduct(ctx, "p1")
	assert.ErrorIs(t, err, e.ErrNotFound)

	err = uc.DeleteProduct(ctx, "p1")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateProductReq
		want error
	}{
		{"missing name", CreateProductReq{ID: "p1"}, e.ErrMissingFields},
		{"missing id", CreateProductReq{Name: "Widget"}, e.ErrMissingFields},
		{"blank name", CreateProductReq{ID: "p1", Name: "   "}, e.ErrMissingFields},
		{"blank id", CreateProductReq{ID: " \t", Name: "Widget"}, e.ErrMissingFields},
		{"negative stock", CreateProductReq{ID: "p1", Name: "Widget", Stock: -1}, e.ErrNegativeStock},
		{"negative price", CreateProductReq{ID: "p1", Name: "Widget", Price: decimal.NewFromInt(-1)}, e.ErrNegativePrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, pub := newTestUC(t)
			ctx := context.Background()

			_, err := uc.CreateProduct(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, e.KindValidation, e.KindOf(err))

			list, err := uc.ListProducts(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, list.Count)
			assert.Empty(t, pub.types())
		})
	}
}

func TestUpdate_BlankNameRejected(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)

	_, err = uc.UpdateProduct(ctx, &UpdateProductReq{ID: "p1", Name: ptr(" ")})
	assert.ErrorIs(t, err, e.ErrProductNameRequired)

	got, err := uc.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
}

func TestCreate_KeepsPaddedIDAndNameVerbatim(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "  p1 ", Name: " Widget "})
	require.NoError(t, err)
	assert.Equal(t, "  p1 ", created.ID)
	assert.Equal(t, " Widget ", created.Name)

	got, err := uc.GetProduct(ctx, "  p1 ")
	require.NoError(t, err)
	assert.Equal(t, " Widget ", got.Name)

	_, err = uc.GetProduct(ctx, "p1")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestPrice_RoundTripsExactly(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()
	price := decimal.RequireFromString("19.99")

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget", Price: price})
	require.NoError(t, err)

	got, err := uc.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.Price.String())

	updated, err := uc.UpdateProduct(ctx, &UpdateProductReq{ID: "p1", Price: ptr(decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2")))})
	require.NoError(t, err)
	assert.Equal(t, "0.3", updated.Price.String())
}

func TestList_ReturnsExactlyCreated(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	want := []string{"a", "b", "c", "d"}
	for _, id := range []string{"c", "a", "d", "b"} {
		_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: id, Name: "n-" + id})
		require.NoError(t, err)
	}

	res, err := uc.ListProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, len(want), res.Count)

	ids := make([]string, 0, res.Count)
	for _, p := range res.Products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, want, ids)
}

func TestCreate_OverwritesExistingID(t *testing.T) {
	uc, _ := newTestUC(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Old", Stock: 9})
	require.NoError(t, err)
	_, err = uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "New"})
	require.NoError(t, err)

	got, err := uc.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, int64(0), got.Stock)
}

func TestEventsPublishedPerOperation(t *testing.T) {
	uc, pub := newTestUC(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)
	_, err = uc.UpdateProduct(ctx, &UpdateProductReq{ID: "p1", Description: ptr("d")})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteProduct(ctx, "p1"))

	assert.Equal(t, []ProductEventType{ProductCreated, ProductUpdated, ProductDeleted}, pub.types())
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	uc, pub := newTestUC(t)
	pub.err = fmt.Errorf("broker not available")

	p, err := uc.CreateProduct(context.Background(), &CreateProductReq{ID: "p1", Name: "Widget"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestList_StorageFailure(t *testing.T) {
	uc := NewProductUC(failingRepo{memory.NewProductRepo()}, nil, nil, logger.NewNopLogger())

	_, err := uc.ListProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, e.KindStorage, e.KindOf(err))
}
