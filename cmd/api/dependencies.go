package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/ec-storefront/internal/api"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/cache"
	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
)

// catalogBackend is what every configured catalog backend provides.
type catalogBackend interface {
	catalog.Source
	catalog.CategorySource
}

type idleDeleter interface {
	DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

type closer struct {
	name string
	fn   func() error
}

// dependencies opens shared connections lazily and closes them in reverse order.
type dependencies struct {
	db          *sql.DB
	redis       *cache.Client
	closers     []closer
	checks      map[string]api.HealthCheck
	idleDeleter idleDeleter
}

func (d *dependencies) onClose(name string, fn func() error) {
	d.closers = append(d.closers, closer{name: name, fn: fn})
}

func (d *dependencies) close(log *logger.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		c := d.closers[i]
		if err := c.fn(); err != nil {
			log.Error(log.WithField(context.Background(), "dependency", c.name), "error closing dependency", err)
		}
	}
}

func (d *dependencies) postgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if d.db != nil {
		return d.db, nil
	}
	db, err := store.ConnectPostgres(ctx, cfg.DB.DSN, store.PoolOptions{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
	}
	d.db = db
	d.onClose("postgres", db.Close)
	d.checks["postgres"] = db.PingContext
	return db, nil
}

func (d *dependencies) redisClient(ctx context.Context, cfg *config.Config) (*cache.Client, error) {
	if d.redis != nil {
		return d.redis, nil
	}
	client, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	d.redis = client
	d.onClose("redis", client.Close)
	d.checks["redis"] = client.Ping
	return client, nil
}

// catalogSource builds the configured catalog backend, wrapped in the Redis
// snapshot cache when a cache TTL is set.
func (d *dependencies) catalogSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (catalogBackend, error) {
	var source catalogBackend

	switch cfg.Catalog.Backend {
	case config.CatalogBackendFixture:
		fc, err := fixture.Load(cfg.Catalog.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog fixture: %w", err)
		}
		log.Info(log.WithField(ctx, "products", fc.Len()), "loaded catalog fixture")
		source = fc

	case config.CatalogBackendPostgres:
		db, err := d.postgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Catalog.SeedFromFixture {
			if err := seedCatalog(ctx, db, cfg.Catalog.FixturePath); err != nil {
				return nil, err
			}
			log.Info(ctx, "seeded catalog from fixture")
		}
		source = store.NewPostgresCatalog(db)

	case config.CatalogBackendDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		source = store.NewDynamoCatalog(
			dynamodb.NewFromConfig(awsCfg),
			cfg.Catalog.DynamoProductsTable,
			cfg.Catalog.DynamoCategoriesTable,
		)

	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}

	if cfg.Catalog.CacheTTL <= 0 {
		return source, nil
	}
	client, err := d.redisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewCatalogCache(client, source, cfg.Catalog.CacheTTL, log), nil
}

func seedCatalog(ctx context.Context, db *sql.DB, path string) error {
	doc, err := fixture.Load(path)
	if err != nil {
		return fmt.Errorf("loading seed fixture: %w", err)
	}
	products, err := doc.FetchAll(ctx)
	if err != nil {
		return err
	}
	categories, err := doc.FetchCategories(ctx)
	if err != nil {
		return err
	}
	if err := store.SeedCatalog(ctx, db, products, categories); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	return nil
}

func (d *dependencies) cartStore(ctx context.Context, cfg *config.Config) (cart.BlobStore, error) {
	switch cfg.Cart.Backend {
	case config.CartBackendMemory:
		s := store.NewMemoryCartStore()
		d.idleDeleter = s
		return s, nil

	case config.CartBackendRedis:
		client, err := d.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisCartStore(client, cfg.Cart.SessionTTL), nil

	case config.CartBackendPostgres:
		db, err := d.postgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s := store.NewPostgresCartStore(db)
		d.idleDeleter = s
		return s, nil
	}
	return nil, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
}
