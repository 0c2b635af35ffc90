package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/furnacestore/storefront/internal/domain"
	pkgkafka "github.com/furnacestore/storefront/pkg/kafka"
)

// Catalog event types and their topics.
const (
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

var (
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// AggregateTypeProduct is the aggregate type of catalog events.
const AggregateTypeProduct = "product"

// ProductEventData is the payload of product.updated and product.deleted.
type ProductEventData struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name,omitempty"`
	CategoryID int64  `json:"category_id,omitempty"`
}

// Publisher is implemented by *pkgkafka.Producer.
type Publisher interface {
	PublishAll(ctx context.Context, topic string, events ...*pkgkafka.Event) error
}

// Producer publishes catalog change events.
type Producer struct {
	publisher Publisher
	source    string
	logger    *slog.Logger
}

// NewProducer creates a catalog event producer. source names the emitting
// process in the event envelope.
func NewProducer(publisher Publisher, source string, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, source: source, logger: logger}
}

// PublishProductsUpdated emits one product.updated event per product in a
// single batch.
func (p *Producer) PublishProductsUpdated(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	events := make([]*pkgkafka.Event, 0, len(products))
	for _, product := range products {
		evt, err := pkgkafka.NewEvent(
			ctx,
			EventProductUpdated,
			strconv.FormatInt(product.ID, 10),
			AggregateTypeProduct,
			p.source,
			ProductEventData{ProductID: product.ID, Name: product.Name, CategoryID: product.CategoryID},
		)
		if err != nil {
			return fmt.Errorf("build product.updated event: %w", err)
		}
		events = append(events, evt)
	}

	if err := p.publisher.PublishAll(ctx, TopicProductUpdated, events...); err != nil {
		return fmt.Errorf("publish product.updated: %w", err)
	}

	p.logger.InfoContext(ctx, "published product.updated events", slog.Int("count", len(events)))
	return nil
}
