package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/products-api/internal/cfg"
	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/repository/redis/converter"
	"github.com/DRSN-tech/products-api/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis реализует только команды, которые использует CacheRepo.
type fakeRedis struct {
	goredis.Cmdable

	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = str(value)
	f.ttls[key] = ttl
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.data[key] = str(value)
	f.ttls[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func str(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v.(string)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
		delete(f.data, k)
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func newTestCache(t *testing.T) (*CacheRepo, *fakeRedis) {
	t.Helper()
	fake := newFakeRedis()
	repo := NewCacheRepo(fake, converter.NewProductConverterImpl(), &cfg.RedisCfg{ProductTTL: time.Minute}, logger.NewNopLogger())
	return repo, fake
}

func TestCacheRepo_SetGet(t *testing.T) {
	repo, fake := newTestCache(t)
	ctx := context.Background()
	now := domain.NormalizeTime(time.Now())
	in := domain.NewProduct("p1", "Widget", "", decimal.RequireFromString("19.99"), 1, now)

	require.NoError(t, repo.SetProduct(ctx, in))

	ttl := fake.ttls["product:p1"]
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, 90*time.Second)

	got, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "19.99", got.Price.String())
	assert.True(t, now.Equal(got.UpdatedAt))
}

func TestCacheRepo_Miss(t *testing.T) {
	repo, _ := newTestCache(t)

	got, err := repo.GetProduct(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepo_CorruptEntryIsDropped(t *testing.T) {
	repo, fake := newTestCache(t)
	fake.data["product:p1"] = "{not json"

	got, err := repo.GetProduct(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, fake.has("product:p1"))
}

func TestCacheRepo_IDMismatchIsDropped(t *testing.T) {
	repo, fake := newTestCache(t)
	fake.data["product:p1"] = `{"id":"p2","price":"1"}`

	got, err := repo.GetProduct(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, fake.has("product:p1"))
}

func TestCacheRepo_DeleteLeavesInvalidationMarker(t *testing.T) {
	repo, fake := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, repo.SetProduct(ctx, domain.NewProduct("p1", "Widget", "", decimal.Zero, 0, time.Now())))

	require.NoError(t, repo.DeleteProduct(ctx, "p1"))
	assert.Equal(t, invalidatedMarker, fake.data["product:p1"])
	assert.Equal(t, InvalidationTTL, fake.ttls["product:p1"])

	got, err := repo.GetProduct(ctx, "p1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepo_FillAfterInvalidationIsIgnored(t *testing.T) {
	repo, _ := newTestCache(t)
	ctx := context.Background()
	stale := domain.NewProduct("p1", "Old", "", decimal.Zero, 0, time.Now())

	require.NoError(t, repo.DeleteProduct(ctx, "p1"))
	require.NoError(t, repo.SetProduct(ctx, stale))

	got, err := repo.GetProduct(ctx, "p1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepo_SetDoesNotOverwriteLiveEntry(t *testing.T) {
	repo, _ := newTestCache(t)
	ctx := context.Background()
	now := domain.NormalizeTime(time.Now())

	require.NoError(t, repo.SetProduct(ctx, domain.NewProduct("p1", "First", "", decimal.Zero, 0, now)))
	require.NoError(t, repo.SetProduct(ctx, domain.NewProduct("p1", "Second", "", decimal.Zero, 0, now)))

	got, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name)
}
