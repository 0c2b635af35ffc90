package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/furnacestore/storefront/pkg/kafka"
)

// CacheInvalidator drops cached catalog entries.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...int64) error
}

// Consumer keeps the catalog cache consistent with catalog change events.
type Consumer struct {
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewConsumer creates a new catalog event consumer.
func NewConsumer(cache CacheInvalidator, logger *slog.Logger) *Consumer {
	return &Consumer{cache: cache, logger: logger}
}

// HandleCatalogEvent evicts the product named by a product.updated or
// product.deleted event. Other event types are ignored.
func (c *Consumer) HandleCatalogEvent(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case EventProductUpdated, EventProductDeleted:
	default:
		c.logger.DebugContext(ctx, "ignoring catalog event", slog.String("event_type", event.EventType))
		return nil
	}

	var data ProductEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if data.ProductID <= 0 {
		c.logger.WarnContext(ctx, "catalog event without product id",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
		)
		return nil
	}

	if err := c.cache.Invalidate(ctx, data.ProductID); err != nil {
		return fmt.Errorf("invalidate product %d: %w", data.ProductID, err)
	}

	c.logger.InfoContext(ctx, "catalog cache entry evicted",
		slog.String("event_type", event.EventType),
		slog.Int64("product_id", data.ProductID),
	)
	return nil
}
