package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxHandlerRetries is the maximum number of times a message handler will be
// attempted before the message is dead-lettered and committed.
const maxHandlerRetries = 3

// TopicPrefix is the standard prefix for all storefront Kafka topics.
const TopicPrefix = "storefront"

// Topic constructs a fully-qualified topic name, e.g. storefront.product.updated.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// MessageReader is the subset of *kafka.Reader the consumer drives.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher receives messages whose handler kept failing.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	MinBytes int
	MaxBytes int
}

// Consumer fetches events from one or more topics, runs the handler with
// retries, and commits each message once it is handled or dead-lettered.
type Consumer struct {
	reader    MessageReader
	group     string
	topics    []string
	handler   Handler
	logger    *slog.Logger
	dlq       DeadLetterPublisher
	backoff   time.Duration
	closeOnce sync.Once
}

// ConsumerOption configures optional Consumer behaviour.
type ConsumerOption func(*Consumer)

// WithDeadLetter routes messages that exhaust their retries to dlq.
func WithDeadLetter(dlq DeadLetterPublisher) ConsumerOption {
	return func(c *Consumer) { c.dlq = dlq }
}

// NewConsumer creates a consumer group member subscribed to cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
	return newConsumer(r, cfg.GroupID, cfg.Topics, handler, logger, opts...)
}

func newConsumer(r MessageReader, group string, topics []string, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:  r,
		group:   group,
		topics:  topics,
		handler: handler,
		logger:  logger,
		backoff: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes messages until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "consumer started",
		slog.String("topics", strings.Join(c.topics, ",")),
		slog.String("group", c.group),
	)
	defer c.Close() //nolint:errcheck

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("group", c.group))
				return nil
			}
			c.logger.ErrorContext(ctx, "failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		if err := c.process(ctx, msg); err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

// process handles one message. It returns a non-nil error only when ctx was
// cancelled mid-retry, leaving the message uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ConsumerMessagesReceived.WithLabelValues(msg.Topic, c.group).Inc()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		ConsumerMessagesFailed.WithLabelValues(msg.Topic, c.group).Inc()
		c.deadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return nil
	}

	ctx = ExtractTraceContext(ctx, msg.Headers)
	ctx, span := otel.Tracer("github.com/furnacestore/storefront/pkg/kafka").Start(ctx, "consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.String("event.type", event.EventType),
		),
	)
	defer span.End()

	start := time.Now()
	lastErr := c.handleWithRetry(ctx, msg, event)
	ConsumerProcessingDuration.WithLabelValues(msg.Topic, c.group).Observe(time.Since(start).Seconds())

	if lastErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		c.logger.ErrorContext(ctx, "handler failed after all retries",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
		ConsumerMessagesFailed.WithLabelValues(msg.Topic, c.group).Inc()
		c.deadLetter(ctx, msg, lastErr)
	} else {
		ConsumerMessagesProcessed.WithLabelValues(msg.Topic, c.group).Inc()
	}

	c.commit(ctx, msg)
	return nil
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			return nil
		}
		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
		)
		if attempt == maxHandlerRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return lastErr
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		return
	}
	ConsumerDLQPublished.WithLabelValues(msg.Topic, c.group).Inc()
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
