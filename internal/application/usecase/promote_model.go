package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veridex/riskengine/internal/application/dto"
	"github.com/veridex/riskengine/internal/domain/event"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/service"
)

// PromoteModel gates a registered candidate version against the release
// policy and, when admitted, swaps it in as the active version.
type PromoteModel struct {
	registry  port.ModelRegistry
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewPromoteModel creates the promotion use case.
func NewPromoteModel(registry port.ModelRegistry, publisher port.EventPublisher, logger *slog.Logger) *PromoteModel {
	return &PromoteModel{registry: registry, publisher: publisher, logger: logger}
}

// Execute runs the release gate. A rejected candidate never becomes active;
// the gate decision is returned either way.
func (uc *PromoteModel) Execute(ctx context.Context, req dto.PromoteModelRequest) (dto.PromoteModelResponse, error) {
	candidate, err := uc.registry.Get(req.Version)
	if err != nil {
		return dto.PromoteModelResponse{}, fmt.Errorf("failed to load candidate version: %w", err)
	}

	policy := uc.registry.ReleasePolicy()
	decision := service.EvaluateRelease(policy, candidate.Card)

	if !decision.Approved {
		uc.logger.Warn("release gate rejected candidate",
			"version", req.Version,
			"reasons", decision.FailureReasons,
		)
		return dto.PromoteModelResponse{Decision: decision}, nil
	}

	if policy.RequiresSignoff && req.SignedOffBy == "" {
		decision.Approved = false
		decision.FailureReasons = append(decision.FailureReasons, "sign-off required but missing")
		return dto.PromoteModelResponse{Decision: decision}, nil
	}

	if err := uc.registry.Activate(req.Domain, req.Version); err != nil {
		return dto.PromoteModelResponse{}, fmt.Errorf("failed to activate version: %w", err)
	}

	uc.logger.Info("model version promoted",
		"domain", req.Domain,
		"version", req.Version,
		"signed_off_by", req.SignedOffBy,
	)

	promoted := event.ModelPromoted{
		Domain:      req.Domain,
		Version:     req.Version,
		SignedOffBy: req.SignedOffBy,
		PromotedAt:  time.Now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, promoted); err != nil {
		uc.logger.Error("failed to publish promotion event", "error", err)
	}

	return dto.PromoteModelResponse{Decision: decision, Promoted: true}, nil
}
