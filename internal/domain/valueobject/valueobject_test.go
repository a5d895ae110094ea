package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionFromString(t *testing.T) {
	p, err := PredictionFromString("HIGH_RISK")
	require.NoError(t, err)
	assert.True(t, p.Equal(PredictionHighRisk))

	_, err = PredictionFromString("SEVERE")
	assert.Error(t, err)

	assert.True(t, Prediction{}.IsZero())
	assert.False(t, PredictionLowRisk.IsZero())
}

func TestPredictionRequiresHuman(t *testing.T) {
	assert.True(t, PredictionHumanReview.RequiresHuman())
	assert.False(t, PredictionHighRisk.RequiresHuman())
}

func TestVerdictFromPrediction(t *testing.T) {
	cases := map[Prediction]Verdict{
		PredictionLowRisk:     VerdictReal,
		PredictionMediumRisk:  VerdictUnverified,
		PredictionHighRisk:    VerdictFake,
		PredictionHumanReview: VerdictAbstain,
	}
	for p, want := range cases {
		assert.True(t, VerdictFromPrediction(p).Equal(want), p.String())
	}
}

func TestVerdictFromString(t *testing.T) {
	v, err := VerdictFromString("ABSTAIN")
	require.NoError(t, err)
	assert.Equal(t, "ABSTAIN", v.String())

	_, err = VerdictFromString("MAYBE")
	assert.Error(t, err)
}

func TestDriftStateSeverityOrdering(t *testing.T) {
	assert.Less(t, DriftStable.Severity(), DriftWarning.Severity())
	assert.Less(t, DriftWarning.Severity(), DriftCritical.Severity())

	s, err := DriftStateFromString("warning")
	require.NoError(t, err)
	assert.True(t, s.Equal(DriftWarning))

	_, err = DriftStateFromString("elevated")
	assert.Error(t, err)
}
