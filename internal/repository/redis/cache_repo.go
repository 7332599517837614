package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/products-api/internal/cfg"
	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/repository/redis/converter"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/jitter"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "product:"

	// invalidatedMarker занимает ключ после инвалидации, чтобы запоздавшее
	// фоновое заполнение не вернуло в кэш устаревшую запись.
	invalidatedMarker = "-"
	// InvalidationTTL должен быть больше таймаута фонового заполнения в usecase.
	InvalidationTTL = 5 * time.Second
)

type CacheRepo struct {
	client goredis.Cmdable
	conv   converter.ProductConverter
	ttl    time.Duration
	logger logger.Logger
}

func NewCacheRepo(client goredis.Cmdable, conv converter.ProductConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		ttl:    cfg.ProductTTL,
		logger: logger,
	}
}

// GetProduct возвращает продукт из кэша. Промах или битая запись — (nil, nil).
func (r *CacheRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	key := productKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil // промах
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if string(data) == invalidatedMarker {
		return nil, nil
	}

	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		r.logger.Warnf("Redis unmarshal failed, key: %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		r.drop(key)
		return nil, nil
	}

	if model.ID != id {
		r.logger.Warnf("Cache ID mismatch: key_id: %s, model_id: %s", id, model.ID)
		r.drop(key)
		return nil, nil
	}

	product, err := r.conv.ToEntity(&model)
	if err != nil {
		r.logger.Warnf("Cached product is corrupt, key: %s: %v", key, err)
		r.drop(key)
		return nil, nil
	}

	return product, nil
}

// SetProduct кэширует продукт, только если ключ свободен (SET NX): живая запись
// и метка инвалидации не перезаписываются. TTL размазывается джиттером.
func (r *CacheRepo) SetProduct(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(r.conv.ToRedisModel(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ttl := jitter.Duration(r.ttl, jitter.DefaultJitter)
	if err := r.client.SetNX(ctx, productKey(product.ID), data, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProduct инвалидирует продукт: ключ заменяется короткоживущей меткой.
func (r *CacheRepo) DeleteProduct(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, productKey(id), invalidatedMarker, InvalidationTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *CacheRepo) drop(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// productKey возвращает Redis-ключ для одного продукта
func productKey(id string) string {
	return fmt.Sprintf("%s%s", productKeyPrefix, id)
}
