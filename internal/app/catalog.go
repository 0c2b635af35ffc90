package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/furnacestore/storefront/internal/config"
	"github.com/furnacestore/storefront/internal/repository"
	"github.com/furnacestore/storefront/internal/repository/memory"
	"github.com/furnacestore/storefront/internal/repository/postgres"
	"github.com/furnacestore/storefront/migrations"
	"github.com/furnacestore/storefront/pkg/database"
)

// Catalog is the product and category storage selected by CATALOG_BACKEND.
type Catalog struct {
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	pool       *pgxpool.Pool
}

// OpenCatalog connects the configured backend. For PostgreSQL it also runs
// migrations and registers pool metrics.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Catalog, error) {
	if cfg.CatalogBackend == config.BackendMemory {
		categories := memory.NewCategoryRepository()
		logger.Info("using in-memory catalog")
		return &Catalog{
			Products:   memory.NewProductRepository(categories),
			Categories: categories,
		}, nil
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	return &Catalog{
		Products:   postgres.NewProductRepository(pool),
		Categories: postgres.NewCategoryRepository(pool),
		pool:       pool,
	}, nil
}

// Ping checks the backing database. The in-memory catalog is always up.
func (c *Catalog) Ping(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Ping(ctx)
}

// Close releases the database pool, if any.
func (c *Catalog) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
