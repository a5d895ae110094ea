package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/riskengine/internal/domain/event"
	"github.com/veridex/riskengine/internal/domain/valueobject"
)

func openEvaluation(t *testing.T) *Evaluation {
	t.Helper()
	e, err := NewEvaluation(uuid.New(), "general", "v2.1.0", "ab12cd34ef56ab12")
	require.NoError(t, err)
	return e
}

func validConclusion() Conclusion {
	return Conclusion{
		Quality:     DataQualityReport{Score: 0.9, Usable: true},
		Ensemble:    EnsembleResult{RawScore: 0.3, Agreement: 0.85},
		Calibration: CalibrationRecord{Method: "platt", RawScore: 0.3, CalibratedScore: 0.25},
		Uncertainty: UncertaintyEstimate{Total: 0.06},
		Prediction:  valueobject.PredictionLowRisk,
		Verdict:     valueobject.VerdictReal,
		Confidence:  0.88,
	}
}

func TestNewEvaluation_Validation(t *testing.T) {
	_, err := NewEvaluation(uuid.Nil, "general", "v1", "hash")
	assert.Error(t, err)

	_, err = NewEvaluation(uuid.New(), "general", "", "hash")
	assert.Error(t, err)

	_, err = NewEvaluation(uuid.New(), "general", "v1", "")
	assert.Error(t, err)

	e, err := NewEvaluation(uuid.New(), "", "v1", "hash")
	require.NoError(t, err)
	assert.Equal(t, "general", e.Domain())
}

func TestEvaluation_ConcludeOnce(t *testing.T) {
	e := openEvaluation(t)

	require.NoError(t, e.Conclude(validConclusion(), 10))
	assert.True(t, e.Concluded())

	err := e.Conclude(validConclusion(), 10)
	assert.Error(t, err)
}

func TestEvaluation_UnusableInputMustEscalate(t *testing.T) {
	e := openEvaluation(t)

	c := validConclusion()
	c.Quality.Usable = false

	err := e.Conclude(c, 10)
	require.Error(t, err)

	c.Prediction = valueobject.PredictionHumanReview
	c.Verdict = valueobject.VerdictAbstain
	assert.NoError(t, e.Conclude(c, 10))
}

func TestEvaluation_AbstainRecommendationMustEscalate(t *testing.T) {
	e := openEvaluation(t)

	c := validConclusion()
	c.Uncertainty.AbstainRecommended = true

	assert.Error(t, e.Conclude(c, 10))
}

func TestEvaluation_RejectsOutOfRangeScore(t *testing.T) {
	e := openEvaluation(t)

	c := validConclusion()
	c.Calibration.CalibratedScore = 1.3

	assert.Error(t, e.Conclude(c, 10))
}

func TestEvaluation_EmitsCompletionEvent(t *testing.T) {
	e := openEvaluation(t)
	require.NoError(t, e.Conclude(validConclusion(), 10))

	events := e.DomainEvents()
	require.Len(t, events, 1)

	completed, ok := events[0].(event.EvaluationCompleted)
	require.True(t, ok)
	assert.Equal(t, e.ScanID(), completed.ScanID)
	assert.Equal(t, "LOW_RISK", completed.Prediction)

	// Drained after first read.
	assert.Empty(t, e.DomainEvents())
}

func TestEvaluation_HighRiskEmitsAlert(t *testing.T) {
	e := openEvaluation(t)

	c := validConclusion()
	c.Calibration.CalibratedScore = 0.9
	c.Prediction = valueobject.PredictionHighRisk
	c.Verdict = valueobject.VerdictFake
	c.Flags = GovernanceFlags{PoliticalRiskDetected: true, SensitiveContentScore: 0.6}
	require.NoError(t, e.Conclude(c, 10))

	events := e.DomainEvents()
	require.Len(t, events, 2)

	alert, ok := events[1].(event.HighRiskDetected)
	require.True(t, ok)
	assert.True(t, alert.PoliticalRiskDetected)
	assert.Equal(t, 0.9, alert.CalibratedScore)
}
