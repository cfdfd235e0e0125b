package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOREFRONT"

const (
	CatalogBackendFixture  = "fixture"
	CatalogBackendPostgres = "postgres"
	CatalogBackendDynamo   = "dynamo"

	CartBackendMemory   = "memory"
	CartBackendRedis    = "redis"
	CartBackendPostgres = "postgres"
)

type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	Cart    CartConfig
	DB      DBConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Session SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case CatalogBackendFixture:
		if c.Catalog.FixturePath == "" {
			return fmt.Errorf("%s_CATALOG_FIXTURE_PATH is required for the fixture backend", EnvPrefix)
		}
	case CatalogBackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s_DB_DSN is required for the postgres catalog backend", EnvPrefix)
		}
	case CatalogBackendDynamo:
		if c.Catalog.DynamoProductsTable == "" {
			return fmt.Errorf("%s_CATALOG_DYNAMO_PRODUCTS_TABLE is required for the dynamo backend", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}

	switch c.Cart.Backend {
	case CartBackendMemory:
	case CartBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s_REDIS_URL or %s_REDIS_ADDR is required for the redis cart backend", EnvPrefix, EnvPrefix)
		}
	case CartBackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s_DB_DSN is required for the postgres cart backend", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown cart backend %q", c.Cart.Backend)
	}

	if c.Catalog.CacheTTL > 0 && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("catalog cache requires %s_REDIS_URL or %s_REDIS_ADDR", EnvPrefix, EnvPrefix)
	}

	if c.Catalog.SeedFromFixture && (c.Catalog.Backend != CatalogBackendPostgres || c.Catalog.FixturePath == "") {
		return fmt.Errorf("%s_CATALOG_SEED_FROM_FIXTURE needs the postgres backend and a fixture path", EnvPrefix)
	}

	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("%s_SESSION_SECRET must be at least 32 characters long", EnvPrefix)
	}
	return nil
}

type AppConfig struct {
	Env       string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port      string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel  string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type CatalogConfig struct {
	Backend               string        `envconfig:"STOREFRONT_CATALOG_BACKEND" default:"fixture"`
	FixturePath           string        `envconfig:"STOREFRONT_CATALOG_FIXTURE_PATH" default:"data/catalog.json"`
	CacheTTL              time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"0s"`
	DynamoProductsTable   string        `envconfig:"STOREFRONT_CATALOG_DYNAMO_PRODUCTS_TABLE"`
	DynamoCategoriesTable string        `envconfig:"STOREFRONT_CATALOG_DYNAMO_CATEGORIES_TABLE"`
	FetchTimeout          time.Duration `envconfig:"STOREFRONT_CATALOG_FETCH_TIMEOUT" default:"5s"`
	// SeedFromFixture upserts the fixture into postgres at startup.
	SeedFromFixture bool `envconfig:"STOREFRONT_CATALOG_SEED_FROM_FIXTURE" default:"false"`
}

type CartConfig struct {
	Backend       string        `envconfig:"STOREFRONT_CART_BACKEND" default:"memory"`
	SessionTTL    time.Duration `envconfig:"STOREFRONT_CART_SESSION_TTL" default:"720h"`
	SaveTimeout   time.Duration `envconfig:"STOREFRONT_CART_SAVE_TIMEOUT" default:"3s"`
	SweepInterval time.Duration `envconfig:"STOREFRONT_CART_SWEEP_INTERVAL" default:"10m"`
}

type DBConfig struct {
	DSN             string        `envconfig:"STOREFRONT_DB_DSN"`
	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate     bool          `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"STOREFRONT_KAFKA_BROKERS"`
	Topic         string   `envconfig:"STOREFRONT_KAFKA_TOPIC" default:"storefront-cart-events"`
	ConsumerGroup string   `envconfig:"STOREFRONT_KAFKA_CONSUMER_GROUP" default:"cart-activity"`
}

// Enabled reports whether cart events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type SessionConfig struct {
	Secret     string        `envconfig:"STOREFRONT_SESSION_SECRET" required:"true"`
	TTL        time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"720h"`
	CookieName string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"storefront_session"`
}
