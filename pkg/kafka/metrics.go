package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var consumerLabels = []string{"topic", "consumer_group"}

var (
	// ConsumerMessagesReceived counts messages fetched from the broker before handling.
	ConsumerMessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumer_messages_received_total",
		Help: "Total number of Kafka messages received (fetched from broker)",
	}, consumerLabels)

	ConsumerMessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumer_messages_processed_total",
		Help: "Total number of successfully processed Kafka messages",
	}, consumerLabels)

	// ConsumerMessagesFailed counts messages that exhausted their retries.
	ConsumerMessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumer_messages_failed_total",
		Help: "Total number of Kafka messages that failed all retries (sent to DLQ or dropped)",
	}, consumerLabels)

	ConsumerProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kafka_consumer_processing_duration_seconds",
		Help:    "Duration of Kafka message processing in seconds",
		Buckets: prometheus.DefBuckets,
	}, consumerLabels)

	ConsumerDLQPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumer_dlq_published_total",
		Help: "Total number of messages published to dead-letter queue",
	}, consumerLabels)

	// ConsumerMessagesDuplicate is keyed by event type because the idempotency
	// guard sits below the consumer and never sees the topic.
	ConsumerMessagesDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumer_messages_duplicate_total",
		Help: "Total number of duplicate Kafka messages skipped by idempotency guard",
	}, []string{"event_type"})

	ProducerMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_producer_messages_published_total",
		Help: "Total number of Kafka messages published",
	}, []string{"topic"})

	ProducerPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_producer_publish_errors_total",
		Help: "Total number of Kafka publish errors",
	}, []string{"topic"})

	ProducerPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kafka_producer_publish_duration_seconds",
		Help:    "Duration of Kafka publish operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
)
