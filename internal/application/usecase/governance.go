package usecase

import (
	"context"
	"fmt"

	"github.com/veridex/riskengine/internal/application/dto"
	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/service"
)

// Governance serves the read-only transparency surface: model cards, release
// policy, bias reports, drift status and the audit page.
type Governance struct {
	registry port.ModelRegistry
	audit    port.AuditChain
	drift    *service.DriftMonitor
}

// NewGovernance creates the governance read facade.
func NewGovernance(registry port.ModelRegistry, audit port.AuditChain, drift *service.DriftMonitor) *Governance {
	return &Governance{registry: registry, audit: audit, drift: drift}
}

// ModelCards lists every registered version with its card, marking the
// active version per domain.
func (g *Governance) ModelCards(ctx context.Context) dto.ModelCardsResponse {
	versions := g.registry.List()

	active := make(map[string]string)
	for _, v := range versions {
		if a, err := g.registry.Active(v.Domain); err == nil {
			active[v.Domain] = a.Version
		}
	}

	entries := make([]dto.ModelCardEntry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, dto.ModelCardEntry{
			Domain:       v.Domain,
			Version:      v.Version,
			Hash:         v.Hash,
			Active:       active[v.Domain] == v.Version,
			RegisteredAt: v.RegisteredAt,
			Card:         v.Card,
		})
	}
	return dto.ModelCardsResponse{Cards: entries}
}

// ReleasePolicy exposes the gate thresholds.
func (g *Governance) ReleasePolicy(ctx context.Context) dto.ReleasePolicyResponse {
	return dto.ReleasePolicyResponse{Policy: g.registry.ReleasePolicy()}
}

// BiasReport summarizes one version's documented biases and fairness metrics.
func (g *Governance) BiasReport(ctx context.Context, version string) (dto.BiasReportResponse, error) {
	v, err := g.registry.Get(version)
	if err != nil {
		return dto.BiasReportResponse{}, fmt.Errorf("failed to load model version: %w", err)
	}

	return dto.BiasReportResponse{
		ModelID:           v.Card.ModelID,
		Version:           v.Version,
		KnownBiases:       v.Card.KnownBiases,
		FalsePositiveRate: v.Card.Metrics.FalsePositiveRate,
		FPRatePolitical:   v.Card.Metrics.FPRatePolitical,
		Limitations:       v.Card.Limitations,
		ApprovalStatus:    string(v.Card.ApprovalStatus),
	}, nil
}

// DriftStatus reports all tracked versions' drift readings.
func (g *Governance) DriftStatus(ctx context.Context) dto.DriftStatusResponse {
	return dto.DriftStatusResponse{Statuses: g.drift.Status()}
}

// maxAuditPageSize caps one audit page.
const maxAuditPageSize = 500

// AuditPage reads one slice of the audit chain and verifies it before
// returning it.
func (g *Governance) AuditPage(ctx context.Context, req dto.AuditPageRequest) (dto.AuditPageResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	records, err := g.audit.Page(ctx, req.After, limit)
	if err != nil {
		return dto.AuditPageResponse{}, fmt.Errorf("failed to read audit chain: %w", err)
	}

	return dto.AuditPageResponse{
		Records:       records,
		ChainVerified: model.VerifyChain(records) == nil,
	}, nil
}
