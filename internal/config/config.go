package config

import (
	"fmt"
	"path/filepath"
	"time"

	pkgconfig "github.com/furnacestore/storefront/pkg/config"
	"github.com/furnacestore/storefront/pkg/database"
	"github.com/furnacestore/storefront/pkg/tracing"
)

// Catalog storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8000"`

	// Catalog storage
	CatalogBackend string `env:"CATALOG_BACKEND" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Catalog read cache
	CatalogCacheEnabled    bool `env:"CATALOG_CACHE_ENABLED" envDefault:"false"`
	CatalogCacheTTLSeconds int  `env:"CATALOG_CACHE_TTL_SECONDS" envDefault:"300"`

	// Kafka
	KafkaEnabled        bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers        []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaCatalogGroupID string   `env:"KAFKA_CATALOG_GROUP_ID" envDefault:"storefront-catalog-cache"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Static files
	StaticDir string `env:"STATIC_DIR" envDefault:"static"`
	ImagesDir string `env:"IMAGES_DIR" envDefault:"static/images"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:5173" envSeparator:","`

	// Cart endpoint rate limit, per client IP
	CartRateLimitRPS   float64 `env:"CART_RATE_LIMIT_RPS" envDefault:"20"`
	CartRateLimitBurst int     `env:"CART_RATE_LIMIT_BURST" envDefault:"40"`

	SeedOnStartup bool `env:"SEED_ON_STARTUP" envDefault:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return cfg, nil
}

// LoadFromMap is Load over an explicit set of variables.
func LoadFromMap(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFromMap(cfg, vars); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CatalogBackend {
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.CatalogBackend)
	}
	if c.CatalogCacheEnabled && c.CatalogCacheTTLSeconds <= 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL_SECONDS must be positive, got %d", c.CatalogCacheTTLSeconds)
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
		}
		if c.KafkaCatalogGroupID == "" {
			return fmt.Errorf("KAFKA_CATALOG_GROUP_ID is required when KAFKA_ENABLED is set")
		}
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CartRateLimitRPS <= 0 || c.CartRateLimitBurst <= 0 {
		return fmt.Errorf("CART_RATE_LIMIT_RPS and CART_RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// resolvePaths makes relative static paths absolute against the working
// directory.
func (c *Config) resolvePaths() {
	if abs, err := filepath.Abs(c.StaticDir); err == nil {
		c.StaticDir = abs
	}
	if abs, err := filepath.Abs(c.ImagesDir); err == nil {
		c.ImagesDir = abs
	}
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the client configuration.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Addr = c.RedisAddr
	cfg.Password = c.RedisPassword
	cfg.DB = c.RedisDB
	return cfg
}

// Tracing returns the tracer configuration for the given service name.
func (c *Config) Tracing(serviceName string) tracing.Config {
	cfg := tracing.DefaultConfig(serviceName)
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.OTELEndpoint
	cfg.SampleRate = c.OTELSampleRate
	cfg.Enabled = c.OTELEnabled
	return cfg
}

// CatalogCacheTTL returns the cache entry lifetime.
func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}

// SlowQueryThreshold returns the slow query log threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
