package dto

import (
	"time"

	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/service"
)

// ModelCardsResponse lists every registered version's governance card.
type ModelCardsResponse struct {
	Cards []ModelCardEntry `json:"cards"`
}

// ModelCardEntry is one registered version in the cards listing.
type ModelCardEntry struct {
	Domain       string          `json:"domain"`
	Version      string          `json:"version"`
	Hash         string          `json:"hash"`
	Active       bool            `json:"active"`
	RegisteredAt time.Time       `json:"registered_at"`
	Card         model.ModelCard `json:"card"`
}

// ReleasePolicyResponse exposes the gate thresholds candidates are held to.
type ReleasePolicyResponse struct {
	Policy model.ReleasePolicy `json:"policy"`
}

// BiasReportResponse summarizes a version's known biases and the fairness
// metrics the release gate slices on.
type BiasReportResponse struct {
	ModelID           string   `json:"model_id"`
	Version           string   `json:"version"`
	KnownBiases       []string `json:"known_biases"`
	FalsePositiveRate float64  `json:"false_positive_rate"`
	FPRatePolitical   float64  `json:"fp_rate_political"`
	Limitations       []string `json:"limitations"`
	ApprovalStatus    string   `json:"approval_status"`
}

// DriftStatusResponse reports all tracked versions' drift readings.
type DriftStatusResponse struct {
	Statuses []service.DriftStatus `json:"statuses"`
}

// AuditPageRequest selects a read-only slice of the audit chain.
type AuditPageRequest struct {
	After uint64 `json:"after"`
	Limit int    `json:"limit"`
}

// AuditPageResponse carries one page of audit records plus the verification
// result over the returned slice.
type AuditPageResponse struct {
	Records       []model.AuditRecord `json:"records"`
	ChainVerified bool                `json:"chain_verified"`
}

// PromoteModelRequest asks the release gate to activate a registered version.
type PromoteModelRequest struct {
	Domain      string `json:"domain"`
	Version     string `json:"version"`
	SignedOffBy string `json:"signed_off_by,omitempty"`
	SignOffNote string `json:"sign_off_note,omitempty"`
}

// PromoteModelResponse reports the gate decision and whether the swap happened.
type PromoteModelResponse struct {
	Decision service.ReleaseDecision `json:"decision"`
	Promoted bool                    `json:"promoted"`
}
