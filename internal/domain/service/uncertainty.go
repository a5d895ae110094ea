package service

import (
	"math"
	"sort"

	"github.com/veridex/riskengine/internal/domain/model"
)

// UncertaintyEstimator quantifies how much the engine should trust a single
// aggregated score. Estimates must be deterministic for identical inputs.
type UncertaintyEstimator interface {
	Estimate(ensemble model.EnsembleResult, quality model.DataQualityReport) model.UncertaintyEstimate
}

// EnsembleVarianceEstimator derives epistemic uncertainty from the dispersion
// of the ensemble members and aleatoric uncertainty from input quality.
type EnsembleVarianceEstimator struct {
	// AbstainThreshold is the total uncertainty above which the estimator
	// recommends abstention.
	AbstainThreshold float64
}

// NewEnsembleVarianceEstimator creates an estimator with the given abstention
// threshold; non-positive thresholds fall back to the deployed default.
func NewEnsembleVarianceEstimator(abstainThreshold float64) *EnsembleVarianceEstimator {
	if abstainThreshold <= 0 {
		abstainThreshold = 0.25
	}
	return &EnsembleVarianceEstimator{AbstainThreshold: abstainThreshold}
}

// Estimate combines model disagreement and input noise into a total bound.
func (e *EnsembleVarianceEstimator) Estimate(ensemble model.EnsembleResult, quality model.DataQualityReport) model.UncertaintyEstimate {
	epistemic := signalStddev(ensemble.Signals)
	aleatoric := aleatoricFromQuality(quality.Score)
	total := math.Min(1.0, math.Sqrt(epistemic*epistemic+aleatoric*aleatoric))

	est := model.UncertaintyEstimate{
		Epistemic: epistemic,
		Aleatoric: aleatoric,
		Total:     total,
	}
	if total > e.AbstainThreshold {
		est.AbstainRecommended = true
		est.AbstainReason = "total uncertainty exceeds abstention threshold"
	}
	return est
}

// signalStddev is the population standard deviation of the raw signals.
// A single signal carries no disagreement evidence.
func signalStddev(signals []model.Signal) float64 {
	if len(signals) < 2 {
		return 0
	}
	var mean float64
	for _, s := range signals {
		mean += s.RawScore
	}
	mean /= float64(len(signals))

	var variance float64
	for _, s := range signals {
		d := s.RawScore - mean
		variance += d * d
	}
	variance /= float64(len(signals))
	return math.Sqrt(variance)
}

// aleatoricFromQuality maps the quality score onto irreducible input noise.
// Clean text carries a small floor; degraded text grows linearly.
func aleatoricFromQuality(qualityScore float64) float64 {
	switch {
	case qualityScore >= 0.95:
		return 0.02
	case qualityScore >= 0.85:
		return 0.05
	case qualityScore >= 0.70:
		return 0.10
	default:
		return math.Min(1.0, 0.15+(0.70-qualityScore)*0.3)
	}
}

// ConformalEstimator widens a variance-based estimate with a nonconformity
// quantile fitted offline on held-out residuals. It wraps the base estimator
// so abstention semantics stay in one place.
type ConformalEstimator struct {
	base *EnsembleVarianceEstimator

	// residuals are the sorted absolute calibration residuals.
	residuals []float64

	// confidence is the coverage level, e.g. 0.9 for a 90% interval.
	confidence float64
}

// NewConformalEstimator builds the estimator from offline residuals. With no
// residuals it degrades to the base estimate.
func NewConformalEstimator(base *EnsembleVarianceEstimator, residuals []float64, confidence float64) *ConformalEstimator {
	sorted := make([]float64, len(residuals))
	copy(sorted, residuals)
	sort.Float64s(sorted)
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.9
	}
	return &ConformalEstimator{base: base, residuals: sorted, confidence: confidence}
}

// Estimate inflates the total uncertainty to at least the conformal quantile.
func (c *ConformalEstimator) Estimate(ensemble model.EnsembleResult, quality model.DataQualityReport) model.UncertaintyEstimate {
	est := c.base.Estimate(ensemble, quality)
	if len(c.residuals) == 0 {
		return est
	}

	idx := int(math.Ceil(c.confidence*float64(len(c.residuals)+1))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.residuals) {
		idx = len(c.residuals) - 1
	}
	quantile := c.residuals[idx]

	if quantile > est.Total {
		est.Total = math.Min(1.0, quantile)
	}
	if est.Total > c.base.AbstainThreshold && !est.AbstainRecommended {
		est.AbstainRecommended = true
		est.AbstainReason = "conformal interval exceeds abstention threshold"
	}
	return est
}
