package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furnacestore/storefront/internal/service"
	"github.com/furnacestore/storefront/pkg/health"
	"github.com/furnacestore/storefront/pkg/middleware"
)

const (
	serviceName     = "storefront"
	requestTimeout  = 30 * time.Second
	slowRequest     = time.Second
	maxCartBodySize = 1 << 20
	staticMaxAge    = 3600
)

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	Environment        string
	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
	StaticDir          string
	CartRateLimitRPS   float64
	CartRateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
// ctx bounds the background work of the rate limiter.
func NewRouter(
	ctx context.Context,
	cartService *service.CartService,
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.StorefrontCORS(cfg.CORSAllowedOrigins, cfg.Environment)))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.RequestLogging(logger, slowRequest))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/", Root)

	// Health check endpoints
	r.Get("/health", health.SimpleHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	if cfg.StaticDir != "" {
		r.With(middleware.CacheControl(staticMaxAge)).Handle("/static/*", StaticFiles(cfg.StaticDir))
	}

	// Cart API endpoints
	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(maxBodyBytes(maxCartBodySize))
		r.Use(middleware.RateLimit(ctx, cfg.CartRateLimitRPS, cfg.CartRateLimitBurst, logger))

		r.Post("/view", cartHandler.ViewCart)
		r.Post("/add", cartHandler.AddToCart)
		r.Put("/update", cartHandler.UpdateCart)
		r.Delete("/remove/{productId}", cartHandler.RemoveFromCart)
	})

	// Catalog API endpoints
	catalogHandler := NewCatalogHandler(catalogService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", catalogHandler.ListProducts)
		r.Get("/{productId}", catalogHandler.GetProduct)
		r.Get("/category/{categoryId}", catalogHandler.ListProductsByCategory)
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", catalogHandler.ListCategories)
		r.Get("/{idOrSlug}", catalogHandler.GetCategory)
	})

	return r
}
