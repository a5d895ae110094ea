package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ApprovalStatus tracks the governance lifecycle of a model version.
type ApprovalStatus string

const (
	ApprovalPending    ApprovalStatus = "pending"
	ApprovalApproved   ApprovalStatus = "approved"
	ApprovalRejected   ApprovalStatus = "rejected"
	ApprovalDeprecated ApprovalStatus = "deprecated"
)

// CardMetrics are the offline-measured metrics attached to a model card.
// They are inputs to the release gate, never recomputed online.
type CardMetrics struct {
	Precision           float64 `json:"precision" yaml:"precision"`
	Recall              float64 `json:"recall" yaml:"recall"`
	F1Score             float64 `json:"f1_score" yaml:"f1_score"`
	Accuracy            float64 `json:"accuracy" yaml:"accuracy"`
	AUCROC              float64 `json:"auc_roc" yaml:"auc_roc"`
	ECE                 float64 `json:"ece" yaml:"ece"`
	FalsePositiveRate   float64 `json:"false_positive_rate" yaml:"false_positive_rate"`
	FPRatePolitical     float64 `json:"fp_rate_political" yaml:"fp_rate_political"`
	AverageUncertainty  float64 `json:"avg_uncertainty" yaml:"avg_uncertainty"`
}

// ModelCard is the static governance documentation for one model version.
type ModelCard struct {
	ModelID        string         `json:"model_id" yaml:"model_id"`
	Name           string         `json:"name" yaml:"name"`
	Version        string         `json:"version" yaml:"version"`
	Purpose        string         `json:"purpose" yaml:"purpose"`
	IntendedUse    []string       `json:"intended_use" yaml:"intended_use"`
	ProhibitedUse  []string       `json:"prohibited_use" yaml:"prohibited_use"`
	Limitations    []string       `json:"limitations" yaml:"limitations"`
	KnownBiases    []string       `json:"known_biases" yaml:"known_biases"`
	Metrics        CardMetrics    `json:"metrics" yaml:"metrics"`
	ApprovalStatus ApprovalStatus `json:"approval_status" yaml:"approval_status"`
	ApprovedBy     string         `json:"approved_by,omitempty" yaml:"approved_by"`
	ApprovalDate   *time.Time     `json:"approval_date,omitempty" yaml:"approval_date"`
}

// Validate checks the card is complete enough to register.
func (c ModelCard) Validate() error {
	if c.ModelID == "" {
		return fmt.Errorf("model ID is required")
	}
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Purpose == "" {
		return fmt.Errorf("purpose is required")
	}
	if len(c.ProhibitedUse) == 0 {
		return fmt.Errorf("prohibited use cases are required")
	}
	return nil
}

// ModelVersion is an immutable registry entry binding a card to a domain.
type ModelVersion struct {
	Domain       string    `json:"domain"`
	Version      string    `json:"version"`
	Hash         string    `json:"hash"`
	Card         ModelCard `json:"card"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ReleasePolicy gates whether a candidate version may become active.
type ReleasePolicy struct {
	MinPrecision    float64 `json:"min_precision" yaml:"min_precision"`
	MinRecall       float64 `json:"min_recall" yaml:"min_recall"`
	MaxFPPolitical  float64 `json:"max_fp_political" yaml:"max_fp_political"`
	MaxUncertainty  float64 `json:"max_uncertainty" yaml:"max_uncertainty"`
	MaxECE          float64 `json:"max_ece" yaml:"max_ece"`
	RequiresSignoff bool    `json:"requires_signoff" yaml:"requires_signoff"`
}

// SignOff records the explicit human approval a release may require.
type SignOff struct {
	By   string    `json:"by"`
	At   time.Time `json:"at"`
	Note string    `json:"note,omitempty"`
}

// ComputeModelHash derives the short identity hash reported with every
// verdict, stable for a given name and version.
func ComputeModelHash(name, version string) string {
	sum := sha256.Sum256([]byte(name + ":" + version))
	return hex.EncodeToString(sum[:])[:16]
}
