package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/furnacestore/storefront/internal/domain"
	pkgkafka "github.com/furnacestore/storefront/pkg/kafka"
	"github.com/furnacestore/storefront/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, ids ...int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAll(ctx context.Context, topic string, events ...*pkgkafka.Event) error {
	args := m.Called(ctx, topic, events)
	return args.Error(0)
}

func catalogEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	evt, err := pkgkafka.NewEvent(context.Background(), eventType, "1", AggregateTypeProduct, "test", data)
	require.NoError(t, err)
	return evt
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.product.updated", TopicProductUpdated)
	assert.Equal(t, "storefront.product.deleted", TopicProductDeleted)
}

func TestConsumer_EvictsOnUpdateAndDelete(t *testing.T) {
	for _, eventType := range []string{EventProductUpdated, EventProductDeleted} {
		t.Run(eventType, func(t *testing.T) {
			cache := new(mockInvalidator)
			cache.On("Invalidate", mock.Anything, []int64{12}).Return(nil).Once()

			c := NewConsumer(cache, testLogger())
			err := c.HandleCatalogEvent(context.Background(), catalogEvent(t, eventType, ProductEventData{ProductID: 12}))

			require.NoError(t, err)
			cache.AssertExpectations(t)
		})
	}
}

func TestConsumer_IgnoresOtherEvents(t *testing.T) {
	cache := new(mockInvalidator)
	c := NewConsumer(cache, testLogger())

	err := c.HandleCatalogEvent(context.Background(), catalogEvent(t, "category.updated", map[string]int{"id": 1}))
	require.NoError(t, err)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestConsumer_MissingProductID(t *testing.T) {
	cache := new(mockInvalidator)
	c := NewConsumer(cache, testLogger())

	err := c.HandleCatalogEvent(context.Background(), catalogEvent(t, EventProductDeleted, map[string]string{}))
	require.NoError(t, err)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestConsumer_BadPayload(t *testing.T) {
	cache := new(mockInvalidator)
	c := NewConsumer(cache, testLogger())

	evt := &pkgkafka.Event{EventType: EventProductUpdated, Data: json.RawMessage(`"oops"`)}
	err := c.HandleCatalogEvent(context.Background(), evt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal product.updated")
}

func TestConsumer_InvalidateErrorIsReturnedForRetry(t *testing.T) {
	cache := new(mockInvalidator)
	cache.On("Invalidate", mock.Anything, []int64{3}).Return(errors.New("redis down"))
	c := NewConsumer(cache, testLogger())

	err := c.HandleCatalogEvent(context.Background(), catalogEvent(t, EventProductUpdated, ProductEventData{ProductID: 3}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestProducer_PublishProductsUpdated(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishAll", mock.Anything, TopicProductUpdated, mock.MatchedBy(func(events []*pkgkafka.Event) bool {
		if len(events) != 2 {
			return false
		}
		var data ProductEventData
		if err := events[1].UnmarshalData(&data); err != nil {
			return false
		}
		return events[0].AggregateID == "1" && events[0].Source == "storefront-seed" && data.ProductID == 2
	})).Return(nil).Once()

	p := NewProducer(pub, "storefront-seed", testLogger())
	err := p.PublishProductsUpdated(context.Background(), []domain.Product{
		{ID: 1, Name: "a", CategoryID: 1},
		{ID: 2, Name: "b", CategoryID: 2},
	})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestProducer_CarriesCorrelationID(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishAll", mock.Anything, TopicProductUpdated, mock.MatchedBy(func(events []*pkgkafka.Event) bool {
		return len(events) == 1 && events[0].CorrelationID == "seed-run-3"
	})).Return(nil).Once()

	p := NewProducer(pub, "storefront-seed", testLogger())
	ctx := logger.WithCorrelationID(context.Background(), "seed-run-3")
	require.NoError(t, p.PublishProductsUpdated(ctx, []domain.Product{{ID: 9, Name: "Печь", CategoryID: 1}}))
	pub.AssertExpectations(t)
}

func TestProducer_NothingToPublish(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "svc", testLogger())

	require.NoError(t, p.PublishProductsUpdated(context.Background(), nil))
	pub.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestProducer_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishAll", mock.Anything, TopicProductUpdated, mock.Anything).Return(errors.New("no leader"))
	p := NewProducer(pub, "svc", testLogger())

	err := p.PublishProductsUpdated(context.Background(), []domain.Product{{ID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no leader")
}
