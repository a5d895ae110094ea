package messaging

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/veridex/riskengine/internal/domain/event"
	"github.com/veridex/riskengine/internal/domain/port"
)

// MeteredPublisher counts published domain events before delegating. Verdict
// counters come from the event stream so that the numbers always match what
// downstream consumers saw.
type MeteredPublisher struct {
	next        port.EventPublisher
	events      metric.Int64Counter
	evaluations metric.Int64Counter
}

// NewMeteredPublisher wraps the publisher with otel counters.
func NewMeteredPublisher(next port.EventPublisher) *MeteredPublisher {
	meter := otel.Meter("riskengine/messaging")

	events, _ := meter.Int64Counter("domain_events_published_total",
		metric.WithDescription("Domain events published by type"))
	evaluations, _ := meter.Int64Counter("evaluations_total",
		metric.WithDescription("Concluded evaluations by prediction and verdict"))

	return &MeteredPublisher{
		next:        next,
		events:      events,
		evaluations: evaluations,
	}
}

// Publish records counters for each event and forwards the batch.
func (p *MeteredPublisher) Publish(ctx context.Context, events ...any) error {
	for _, evt := range events {
		eventType := "unknown"
		if te, ok := evt.(typedEvent); ok {
			eventType = te.EventType()
		}
		p.events.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", eventType),
		))

		if completed, ok := evt.(event.EvaluationCompleted); ok {
			p.evaluations.Add(ctx, 1, metric.WithAttributes(
				attribute.String("prediction", completed.Prediction),
				attribute.String("verdict", completed.Verdict),
			))
		}
	}
	return p.next.Publish(ctx, events...)
}
