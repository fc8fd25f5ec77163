// Package kafka publishes outbox events to the Kafka message bus.
package kafka

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/commercekit/commerce-core/internal/platform/outbox"
)

var _ outbox.Publisher = (*Publisher)(nil)

// Publisher writes outbox payloads to Kafka. One writer serves every topic;
// the topic travels on the message.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a publisher for the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
		},
	}
}

// Publish writes one event. The key routes all events for one aggregate onto
// the same partition so consumers observe them in order.
func (p *Publisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// PublisherFromEnv builds a publisher from KAFKA_BROKERS (comma separated).
// When the variable is missing it logs and returns nil so callers skip
// dispatching.
func PublisherFromEnv(logger *slog.Logger) (*Publisher, func()) {
	raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if raw == "" {
		if logger != nil {
			logger.Warn("KAFKA_BROKERS not set, outbox dispatching disabled")
		}
		return nil, func() {}
	}
	brokers := strings.Split(raw, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	publisher := NewPublisher(brokers)
	if logger != nil {
		logger.Info("kafka publisher configured", slog.String("brokers", raw))
	}
	return publisher, func() { _ = publisher.Close() }
}
