package cache

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/redis/go-redis/v9"
)

var (
	snapshotKey   = buildKey("catalog", "products")
	categoriesKey = buildKey("catalog", "categories")
)

// CatalogCache is a read-through cache of the full catalog snapshot in
// front of another catalog.Source. Cache faults are logged and fall through
// to the wrapped source. It deliberately does not implement
// catalog.Narrower: a cached snapshot already avoids the round trip.
type CatalogCache struct {
	client *Client
	source catalog.Source
	ttl    time.Duration
	log    *logger.Logger
}

func NewCatalogCache(client *Client, source catalog.Source, ttl time.Duration, log *logger.Logger) *CatalogCache {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogCache{
		client: client,
		source: source,
		ttl:    ttl,
		log:    log.Component("catalog-cache"),
	}
}

func (c *CatalogCache) FetchAll(ctx context.Context) ([]product.Product, error) {
	var cached []product.Product
	if c.get(ctx, snapshotKey, &cached) {
		return cached, nil
	}

	products, err := c.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, snapshotKey, products)
	return products, nil
}

// FetchByID answers from a cached snapshot when there is one.
func (c *CatalogCache) FetchByID(ctx context.Context, id int64) (product.Product, error) {
	var cached []product.Product
	if c.get(ctx, snapshotKey, &cached) {
		if i := slices.IndexFunc(cached, func(p product.Product) bool { return p.ID == id }); i >= 0 {
			return cached[i], nil
		}
		return product.Product{}, product.ErrProductNotFound
	}
	return c.source.FetchByID(ctx, id)
}

func (c *CatalogCache) FetchCategories(ctx context.Context) ([]product.Category, error) {
	cs, ok := c.source.(catalog.CategorySource)
	if !ok {
		return []product.Category{}, nil
	}

	var cached []product.Category
	if c.get(ctx, categoriesKey, &cached) {
		return cached, nil
	}

	categories, err := cs.FetchCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, categoriesKey, categories)
	return categories, nil
}

// Invalidate drops the cached snapshot and categories.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.store.Del(ctx, snapshotKey, categoriesKey).Err()
}

func (c *CatalogCache) get(ctx context.Context, key string, out any) bool {
	data, err := c.client.store.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.Warn(ctx, "reading catalog cache", err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn(c.log.WithField(ctx, "key", key), "discarding unreadable catalog cache entry", err)
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Error(ctx, "encoding catalog cache entry", err)
		return
	}
	if err := c.client.store.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "writing catalog cache", err)
	}
}
