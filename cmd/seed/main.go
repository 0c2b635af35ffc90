// Command seed inserts the initial furnace catalog into PostgreSQL. It is
// safe to run repeatedly; existing categories and products are skipped.
// With KAFKA_ENABLED set, created products are announced as product.updated
// events so running storefront instances drop stale cache entries.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/furnacestore/storefront/internal/app"
	"github.com/furnacestore/storefront/internal/config"
	"github.com/furnacestore/storefront/internal/event"
	"github.com/furnacestore/storefront/internal/seed"
	pkgkafka "github.com/furnacestore/storefront/pkg/kafka"
	"github.com/furnacestore/storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	catalog, err := app.OpenCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var notifier seed.Notifier
	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		defer producer.Close() //nolint:errcheck
		notifier = event.NewProducer(producer, "storefront-seed", log)
	}

	res, err := seed.NewSeeder(catalog.Products, catalog.Categories, notifier, log).Run(ctx, seed.Furnaces)
	if err != nil {
		return err
	}

	log.Info("seed complete",
		slog.Int("categories_created", res.CategoriesCreated),
		slog.Int("products_created", len(res.ProductsCreated)),
		slog.Int("products_skipped", res.ProductsSkipped),
	)
	return nil
}
