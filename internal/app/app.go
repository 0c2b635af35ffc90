package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/furnacestore/storefront/internal/config"
	"github.com/furnacestore/storefront/internal/event"
	handler "github.com/furnacestore/storefront/internal/handler/http"
	"github.com/furnacestore/storefront/internal/repository"
	redisrepo "github.com/furnacestore/storefront/internal/repository/redis"
	"github.com/furnacestore/storefront/internal/seed"
	"github.com/furnacestore/storefront/internal/service"
	"github.com/furnacestore/storefront/pkg/database"
	"github.com/furnacestore/storefront/pkg/health"
	pkgkafka "github.com/furnacestore/storefront/pkg/kafka"
	"github.com/furnacestore/storefront/pkg/tracing"
)

const (
	serviceName = "storefront"

	// eventSource names this process in published events.
	eventSource = "storefront"

	idempotencyPrefix = "storefront:catalog-events"
	idempotencyTTL    = 24 * time.Hour
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	catalog        *Catalog
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	stopRouter     context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	if err := ensureDirs(cfg.StaticDir, cfg.ImagesDir); err != nil {
		return nil, err
	}

	catalog, err := OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.catalog = catalog

	if err := a.initInfra(ctx); err != nil {
		a.closeInfra()
		return nil, err
	}

	if cfg.SeedOnStartup {
		var notifier seed.Notifier
		if a.producer != nil {
			notifier = event.NewProducer(a.producer, eventSource, logger)
		}
		seeded, err := seed.NewSeeder(catalog.Products, catalog.Categories, notifier, logger).RunIfEmpty(ctx, seed.Furnaces)
		if err != nil {
			a.closeInfra()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		if seeded {
			logger.Info("empty catalog seeded")
		}
	}

	// Build the dependency graph.
	var lookup repository.ProductLookup = catalog.Products
	var cache *redisrepo.CatalogCache
	if a.rdb != nil {
		cache = redisrepo.NewCatalogCache(a.rdb, catalog.Products, cfg.CatalogCacheTTL(), logger)
		lookup = cache
	}

	cartService := service.NewCartService(lookup, logger)
	catalogService := service.NewCatalogService(catalog.Products, catalog.Categories, logger)

	if cache != nil && cfg.KafkaEnabled {
		a.consumer = a.newCatalogConsumer(cache)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("catalog", catalog.Ping)
	if a.rdb != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// HTTP router.
	routerCtx, stopRouter := context.WithCancel(context.Background())
	a.stopRouter = stopRouter
	router := handler.NewRouter(routerCtx, cartService, catalogService, healthHandler, logger, handler.RouterConfig{
		Environment:        cfg.Environment,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		StaticDir:          cfg.StaticDir,
		CartRateLimitRPS:   cfg.CartRateLimitRPS,
		CartRateLimitBurst: cfg.CartRateLimitBurst,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initInfra connects Redis and Kafka when enabled. Kafka being unreachable
// at startup is not fatal.
func (a *App) initInfra(ctx context.Context) error {
	if a.cfg.CatalogCacheEnabled {
		rdb, err := database.NewRedisClient(ctx, a.cfg.Redis())
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
	}

	if a.cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
		if err := a.producer.Ping(ctx); err != nil {
			a.logger.Warn("kafka ping failed, continuing in degraded mode", slog.String("error", err.Error()))
		} else {
			a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
		}
	}
	return nil
}

// newCatalogConsumer subscribes the cache to catalog change events. Event
// ids are remembered in Redis so redeliveries are skipped across restarts.
func (a *App) newCatalogConsumer(cache *redisrepo.CatalogCache) *pkgkafka.Consumer {
	store := pkgkafka.NewRedisIdempotencyStore(a.rdb, idempotencyPrefix, idempotencyTTL)
	catalogEvents := event.NewConsumer(cache, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)

	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  a.cfg.KafkaBrokers,
		GroupID:  a.cfg.KafkaCatalogGroupID,
		Topics:   []string{event.TopicProductUpdated, event.TopicProductDeleted},
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(store, catalogEvents.HandleCatalogEvent, a.logger), a.logger, pkgkafka.WithDeadLetter(a.dlq))
}

// Run starts the HTTP server and the catalog consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("catalog event consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka, Redis, database.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopRouter()

	// Flush spans after the HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeInfra()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeInfra() []error {
	var errs []error
	closeErr := func(what string, err error) {
		if err != nil {
			a.logger.Error(what+" close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		closeErr("catalog event consumer", a.consumer.Close())
	}
	if a.dlq != nil {
		closeErr("kafka dlq producer", a.dlq.Close())
	}
	if a.producer != nil {
		closeErr("kafka producer", a.producer.Close())
	}
	if a.rdb != nil {
		closeErr("redis", a.rdb.Close())
	}
	if a.catalog != nil {
		a.catalog.Close()
	}
	return errs
}

// ensureDirs creates the static asset directories if they are missing.
func ensureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
