package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/veridex/riskengine/internal/domain/event"
	"github.com/veridex/riskengine/internal/domain/service"
	"github.com/veridex/riskengine/pkg/kafka"
)

// DriftFeed consumes the evaluation stream and feeds calibrated scores into
// the drift monitor. The feed owns the monitor's input: instances that run a
// feed must not also observe their own evaluations in-process, or every local
// score would land in the window twice.
type DriftFeed struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// FeedGroupID returns a consumer group unique to this instance. The group
// must not be shared: members of one group split the topic's partitions
// between them, and each instance needs the whole fleet's traffic.
func FeedGroupID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "riskd"
	}
	return fmt.Sprintf("risk-drift-monitor-%s-%s", host, uuid.NewString()[:8])
}

// NewDriftFeed creates the consumer bound to the evaluation topic.
func NewDriftFeed(cfg kafka.Config, topic string, monitor *service.DriftMonitor, logger *slog.Logger) *DriftFeed {
	return &DriftFeed{
		consumer: kafka.NewConsumer(cfg, topic, feedHandler(monitor), logger),
		logger:   logger,
	}
}

// feedHandler routes completed evaluations into the monitor and ignores
// every other event type on the topic.
func feedHandler(monitor *service.DriftMonitor) kafka.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		if msg.Headers["event_type"] != event.EventTypeEvaluationCompleted {
			return nil
		}

		var completed event.EvaluationCompleted
		if err := json.Unmarshal(msg.Value, &completed); err != nil {
			return fmt.Errorf("failed to decode evaluation event: %w", err)
		}

		monitor.Observe(ctx, completed.ModelVersion, completed.CalibratedScore)
		return nil
	}
}

// Start blocks consuming the stream until the context is canceled.
func (f *DriftFeed) Start(ctx context.Context) error {
	return f.consumer.Start(ctx)
}

// Close closes the underlying reader.
func (f *DriftFeed) Close() error {
	return f.consumer.Close()
}
