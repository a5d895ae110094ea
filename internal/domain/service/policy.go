package service

import (
	"math"

	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/valueobject"
)

// Decision reasons recorded in verdicts and audit records.
const (
	ReasonUnusableInput = "unusable_input"
	ReasonAbstention    = "abstention"
	ReasonBorderline    = "borderline_score"
	ReasonQuorumNotMet  = "quorum_not_met"
	ReasonTimeout       = "timeout"
)

// Thresholds are the per-domain decision bounds.
type Thresholds struct {
	// LowMax is the exclusive upper bound of LOW_RISK.
	LowMax float64 `yaml:"low_max"`

	// MediumMax is the exclusive upper bound of MEDIUM_RISK.
	MediumMax float64 `yaml:"medium_max"`

	// MinAgreement is the ensemble agreement floor below which the policy
	// abstains.
	MinAgreement float64 `yaml:"min_agreement"`

	// MaxUncertainty is the total uncertainty ceiling above which the
	// policy abstains.
	MaxUncertainty float64 `yaml:"max_uncertainty"`

	// ScoreAdjustment is added to the calibrated score before banding.
	// Sensitive domains carry a negative adjustment to suppress false
	// positives.
	ScoreAdjustment float64 `yaml:"score_adjustment"`

	// ExtraCaution routes borderline scores to human review instead of
	// banding them.
	ExtraCaution bool `yaml:"extra_caution"`
}

// borderlineMargin is how close to a band boundary a score may sit before an
// extra-caution domain escalates it.
const borderlineMargin = 0.05

// DefaultThresholds mirrors the deployed general-domain policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowMax:         0.35,
		MediumMax:      0.65,
		MinAgreement:   0.50,
		MaxUncertainty: 0.25,
	}
}

// PoliticalThresholds is the stricter policy for politically sensitive
// content: scores are discounted, the agreement floor rises, and borderline
// scores escalate.
func PoliticalThresholds() Thresholds {
	return Thresholds{
		LowMax:          0.35,
		MediumMax:       0.65,
		MinAgreement:    0.65,
		MaxUncertainty:  0.20,
		ScoreAdjustment: -0.10,
		ExtraCaution:    true,
	}
}

// Decision is the policy outcome for one evaluation.
type Decision struct {
	Prediction    valueobject.Prediction
	Verdict       valueobject.Verdict
	Reason        string
	Confidence    float64
	AdjustedScore float64
}

// GovernancePolicy is a pure decision table. It holds no learned state and
// produces identical decisions for identical inputs.
type GovernancePolicy struct {
	defaults Thresholds
	domains  map[string]Thresholds
}

// NewGovernancePolicy builds a policy with per-domain overrides; unknown
// domains use the defaults.
func NewGovernancePolicy(defaults Thresholds, domains map[string]Thresholds) *GovernancePolicy {
	if domains == nil {
		domains = map[string]Thresholds{}
	}
	return &GovernancePolicy{defaults: defaults, domains: domains}
}

// ThresholdsFor returns the effective thresholds for a domain.
func (p *GovernancePolicy) ThresholdsFor(domain string) Thresholds {
	if t, ok := p.domains[domain]; ok {
		return t
	}
	return p.defaults
}

// Decide maps the evaluation intermediates onto a prediction and verdict.
// Precedence: unusable input, then abstention signals, then score banding.
func (p *GovernancePolicy) Decide(
	domain string,
	quality model.DataQualityReport,
	ensemble model.EnsembleResult,
	calibration model.CalibrationRecord,
	uncertainty model.UncertaintyEstimate,
) Decision {
	t := p.ThresholdsFor(domain)
	adjusted := clampUnit(calibration.CalibratedScore + t.ScoreAdjustment)

	if !quality.Usable {
		return Decision{
			Prediction:    valueobject.PredictionHumanReview,
			Verdict:       valueobject.VerdictAbstain,
			Reason:        ReasonUnusableInput,
			Confidence:    0.5,
			AdjustedScore: adjusted,
		}
	}

	if ensemble.Agreement < t.MinAgreement ||
		uncertainty.Total > t.MaxUncertainty ||
		uncertainty.AbstainRecommended {
		return Decision{
			Prediction:    valueobject.PredictionHumanReview,
			Verdict:       valueobject.VerdictAbstain,
			Reason:        ReasonAbstention,
			Confidence:    0.5,
			AdjustedScore: adjusted,
		}
	}

	if t.ExtraCaution && nearBoundary(adjusted, t) {
		return Decision{
			Prediction:    valueobject.PredictionHumanReview,
			Verdict:       valueobject.VerdictAbstain,
			Reason:        ReasonBorderline,
			Confidence:    0.5,
			AdjustedScore: adjusted,
		}
	}

	var prediction valueobject.Prediction
	switch {
	case adjusted < t.LowMax:
		prediction = valueobject.PredictionLowRisk
	case adjusted < t.MediumMax:
		prediction = valueobject.PredictionMediumRisk
	default:
		prediction = valueobject.PredictionHighRisk
	}

	return Decision{
		Prediction:    prediction,
		Verdict:       valueobject.VerdictFromPrediction(prediction),
		Confidence:    decisionConfidence(adjusted, uncertainty.Total, ensemble.Agreement),
		AdjustedScore: adjusted,
	}
}

func nearBoundary(score float64, t Thresholds) bool {
	return math.Abs(score-t.LowMax) < borderlineMargin ||
		math.Abs(score-t.MediumMax) < borderlineMargin
}

// decisionConfidence blends score decisiveness, uncertainty and agreement.
func decisionConfidence(score, totalUncertainty, agreement float64) float64 {
	decisiveness := 1.0 - math.Abs(0.5-score)
	return clampUnit(0.3*decisiveness + 0.3*(1.0-totalUncertainty) + 0.4*agreement)
}
