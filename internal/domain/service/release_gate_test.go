package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/riskengine/internal/domain/model"
)

func strictPolicy() model.ReleasePolicy {
	return model.ReleasePolicy{
		MinPrecision:   0.92,
		MinRecall:      0.85,
		MaxFPPolitical: 0.03,
		MaxUncertainty: 0.15,
		MaxECE:         0.05,
	}
}

func passingCard() model.ModelCard {
	return model.ModelCard{
		ModelID: "risk-ensemble",
		Version: "v2.1.0",
		Metrics: model.CardMetrics{
			Precision:          0.94,
			Recall:             0.89,
			ECE:                0.02,
			FPRatePolitical:    0.02,
			AverageUncertainty: 0.11,
		},
	}
}

func TestEvaluateRelease_ApprovesCompliantCandidate(t *testing.T) {
	decision := EvaluateRelease(strictPolicy(), passingCard())

	assert.True(t, decision.Approved)
	assert.Empty(t, decision.FailureReasons)
	assert.Len(t, decision.Checks, 5)
	for _, c := range decision.Checks {
		assert.True(t, c.Passed, c.Name)
	}
}

func TestEvaluateRelease_RejectsLowPrecision(t *testing.T) {
	card := passingCard()
	card.Metrics.Precision = 0.89

	decision := EvaluateRelease(strictPolicy(), card)

	assert.False(t, decision.Approved)
	require.Len(t, decision.FailureReasons, 1)
	assert.Contains(t, decision.FailureReasons[0], "min_precision")
}

func TestEvaluateRelease_RejectsPoliticalFalsePositives(t *testing.T) {
	card := passingCard()
	card.Metrics.FPRatePolitical = 0.06

	decision := EvaluateRelease(strictPolicy(), card)

	assert.False(t, decision.Approved)
	require.Len(t, decision.FailureReasons, 1)
	assert.Contains(t, decision.FailureReasons[0], "max_fp_political")
}

func TestEvaluateRelease_CollectsEveryFailure(t *testing.T) {
	card := passingCard()
	card.Metrics.Precision = 0.80
	card.Metrics.Recall = 0.70
	card.Metrics.ECE = 0.20

	decision := EvaluateRelease(strictPolicy(), card)

	assert.False(t, decision.Approved)
	assert.Len(t, decision.FailureReasons, 3)
}

func TestEvaluateRelease_BoundaryValuesPass(t *testing.T) {
	policy := strictPolicy()
	card := passingCard()
	card.Metrics.Precision = policy.MinPrecision
	card.Metrics.Recall = policy.MinRecall
	card.Metrics.FPRatePolitical = policy.MaxFPPolitical
	card.Metrics.AverageUncertainty = policy.MaxUncertainty
	card.Metrics.ECE = policy.MaxECE

	decision := EvaluateRelease(policy, card)

	assert.True(t, decision.Approved)
}
