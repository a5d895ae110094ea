package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/veridex/riskengine/pkg/kafka"
)

// typedEvent is implemented by every domain event.
type typedEvent interface {
	EventType() string
}

// keyedEvent is implemented by events bound to an aggregate.
type keyedEvent interface {
	AggregateID() uuid.UUID
}

// KafkaPublisher implements port.EventPublisher on the shared Kafka producer.
// Events land on a single topic, typed by header, keyed by aggregate so one
// scan's events stay ordered within a partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates the publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...any) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		eventType := "unknown"
		if te, ok := evt.(typedEvent); ok {
			eventType = te.EventType()
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
		}

		msg := kafka.Message{
			Value:   payload,
			Headers: map[string]string{"event_type": eventType},
		}
		if ke, ok := evt.(keyedEvent); ok {
			msg.Key = []byte(ke.AggregateID().String())
		}
		messages = append(messages, msg)

		p.logger.Debug("publishing event",
			slog.String("event_type", eventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(payload)),
		)
	}

	if len(messages) == 0 {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}
	return nil
}

// LogPublisher is the development fallback when no broker is configured. It
// logs events instead of dropping them silently.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates the logging publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event at debug level.
func (p *LogPublisher) Publish(ctx context.Context, events ...any) error {
	for _, evt := range events {
		eventType := "unknown"
		if te, ok := evt.(typedEvent); ok {
			eventType = te.EventType()
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
		}
		p.logger.Debug("event published",
			slog.String("event_type", eventType),
			slog.String("payload", string(payload)),
		)
	}
	return nil
}
