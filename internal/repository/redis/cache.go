// Package redis provides a read-through Redis cache in front of the
// product catalog.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/furnacestore/storefront/internal/domain"
	"github.com/furnacestore/storefront/internal/repository"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

const (
	keyPrefix   = "catalog:product:"
	breakerName = "catalog-cache"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result (hit, miss, error, skipped).",
	}, []string{"result"})

	cacheBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_catalog_cache_breaker_state",
		Help: "State of the catalog cache circuit breaker (0=closed, 1=half-open, 2=open).",
	})
)

// BreakerConfig controls when the cache stops calling Redis.
type BreakerConfig struct {
	// MaxRequests is how many trial calls are let through while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed. 0 never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// FailureRatio trips the breaker once MinRequests calls were made.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the breaker settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      10 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Option configures a CatalogCache.
type Option func(*CatalogCache)

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *CatalogCache) { c.breakerCfg = cfg }
}

// CatalogCache serves batched product reads from Redis and falls back to
// the wrapped lookup on a miss. Redis failures degrade to the fallback
// rather than failing the request, and repeated failures open a circuit
// breaker so reads skip Redis entirely until it recovers.
type CatalogCache struct {
	client     redis.Cmdable
	next       repository.ProductLookup
	ttl        time.Duration
	logger     *slog.Logger
	breakerCfg BreakerConfig
	breaker    *gobreaker.CircuitBreaker[any]
}

// NewCatalogCache wraps next with a Redis cache whose entries expire after ttl.
func NewCatalogCache(client redis.Cmdable, next repository.ProductLookup, ttl time.Duration, logger *slog.Logger, opts ...Option) *CatalogCache {
	c := &CatalogCache{
		client:     client,
		next:       next,
		ttl:        ttl,
		logger:     logger,
		breakerCfg: DefaultBreakerConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(c.breakerCfg, logger)
	return c
}

func newBreaker(cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			cacheBreakerState.Set(stateToFloat(to))
		},
	})
	cacheBreakerState.Set(0)
	return cb
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerState reports the current state of the Redis circuit breaker.
func (c *CatalogCache) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func productKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// GetByID always asks the wrapped lookup, so an existence check never
// trusts an entry for a product deleted since it was cached. A found
// product refreshes its entry; a missing one evicts it.
func (c *CatalogCache) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.evict(ctx, id)
		}
		return nil, err
	}
	c.store(ctx, *p)
	return p, nil
}

// GetByIDs reads all ids with one MGET and loads the misses with a single
// call to the wrapped lookup. Results follow the order of ids; duplicates
// and ids unknown to the catalog are omitted. Entries may lag a deletion
// by up to the TTL when invalidation events are not consumed.
func (c *CatalogCache) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	found := make(map[int64]domain.Product, len(ids))
	var values []any
	res, err := c.breaker.Execute(func() (any, error) {
		return c.client.MGet(ctx, keys...).Result()
	})
	switch {
	case err == nil:
		values, _ = res.([]any)
	case rejected(err):
		cacheLookups.WithLabelValues("skipped").Add(float64(len(ids)))
	default:
		c.logger.WarnContext(ctx, "catalog cache mget failed", slog.String("error", err.Error()))
		cacheLookups.WithLabelValues("error").Add(float64(len(ids)))
	}

	var misses []int64
	for i, id := range ids {
		if values == nil {
			misses = append(misses, id)
			continue
		}
		raw, ok := values[i].(string)
		if !ok {
			cacheLookups.WithLabelValues("miss").Inc()
			misses = append(misses, id)
			continue
		}
		var p domain.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			cacheLookups.WithLabelValues("error").Inc()
			misses = append(misses, id)
			continue
		}
		cacheLookups.WithLabelValues("hit").Inc()
		found[id] = p
	}

	if len(misses) > 0 {
		loaded, err := c.next.GetByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		c.store(ctx, loaded...)
		for _, p := range loaded {
			found[p.ID] = p
		}
	}

	out := make([]domain.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Invalidate drops the cached entries for ids. It goes straight to Redis
// regardless of the breaker state so a consumed event is never skipped.
func (c *CatalogCache) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del products: %w", err)
	}
	return nil
}

func (c *CatalogCache) evict(ctx context.Context, id int64) {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.client.Del(ctx, productKey(id)).Err()
	})
	if err != nil && !rejected(err) {
		c.logger.WarnContext(ctx, "catalog cache evict failed",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// store writes products in one pipeline. Failures are logged only.
func (c *CatalogCache) store(ctx context.Context, products ...domain.Product) {
	if len(products) == 0 {
		return
	}
	_, err := c.breaker.Execute(func() (any, error) {
		pipe := c.client.Pipeline()
		for _, p := range products {
			data, err := json.Marshal(p)
			if err != nil {
				continue
			}
			pipe.Set(ctx, productKey(p.ID), data, c.ttl)
		}
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil && !rejected(err) {
		c.logger.WarnContext(ctx, "catalog cache store failed",
			slog.Int("count", len(products)),
			slog.String("error", err.Error()),
		)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
