package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrator_PlattIsMonotonic(t *testing.T) {
	cal, err := NewCalibrator([]CalibrationArtifact{{
		Version: "v2.1.0",
		Method:  MethodPlatt,
		PlattA:  4.2,
		PlattB:  -2.1,
		ECE:     0.02,
	}})
	require.NoError(t, err)

	prev := -1.0
	for raw := 0.0; raw <= 1.0; raw += 0.01 {
		rec, err := cal.Apply("v2.1.0", raw)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.CalibratedScore, prev,
			"calibration must not decrease at raw=%f", raw)
		assert.GreaterOrEqual(t, rec.CalibratedScore, 0.0)
		assert.LessOrEqual(t, rec.CalibratedScore, 1.0)
		prev = rec.CalibratedScore
	}
}

func TestCalibrator_TemperatureIsMonotonic(t *testing.T) {
	cal, err := NewCalibrator([]CalibrationArtifact{{
		Version:     "v2.1.0",
		Method:      MethodTemperature,
		Temperature: 1.5,
	}})
	require.NoError(t, err)

	prev := -1.0
	for raw := 0.0; raw <= 1.0; raw += 0.01 {
		rec, err := cal.Apply("v2.1.0", raw)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.CalibratedScore, prev)
		prev = rec.CalibratedScore
	}
}

func TestCalibrator_IsotonicInterpolates(t *testing.T) {
	cal, err := NewCalibrator([]CalibrationArtifact{{
		Version: "v2.1.0",
		Method:  MethodIsotonic,
		Knots: []IsotonicKnot{
			{X: 0.0, Y: 0.05},
			{X: 0.5, Y: 0.40},
			{X: 1.0, Y: 0.95},
		},
	}})
	require.NoError(t, err)

	rec, err := cal.Apply("v2.1.0", 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 0.225, rec.CalibratedScore, 1e-9)

	below, err := cal.Apply("v2.1.0", 0.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, below.CalibratedScore, 1e-9)

	above, err := cal.Apply("v2.1.0", 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, above.CalibratedScore, 1e-9)
}

func TestCalibrator_RejectsNonPositivePlattSlope(t *testing.T) {
	_, err := NewCalibrator([]CalibrationArtifact{{
		Version: "v1.0.0",
		Method:  MethodPlatt,
		PlattA:  -2.0,
	}})
	assert.Error(t, err)
}

func TestCalibrator_RejectsDecreasingKnots(t *testing.T) {
	_, err := NewCalibrator([]CalibrationArtifact{{
		Version: "v1.0.0",
		Method:  MethodIsotonic,
		Knots: []IsotonicKnot{
			{X: 0.0, Y: 0.5},
			{X: 0.5, Y: 0.3},
			{X: 1.0, Y: 0.9},
		},
	}})
	assert.Error(t, err)
}

func TestCalibrator_RejectsUnknownMethod(t *testing.T) {
	_, err := NewCalibrator([]CalibrationArtifact{{
		Version: "v1.0.0",
		Method:  "histogram",
	}})
	assert.Error(t, err)
}

func TestCalibrator_RejectsDuplicateVersions(t *testing.T) {
	_, err := NewCalibrator([]CalibrationArtifact{
		{Version: "v1.0.0", Method: MethodTemperature, Temperature: 1.0},
		{Version: "v1.0.0", Method: MethodPlatt, PlattA: 1.0},
	})
	assert.Error(t, err)
}

func TestCalibrator_MissingVersionIsUnavailable(t *testing.T) {
	cal, err := NewCalibrator(nil)
	require.NoError(t, err)

	_, err = cal.Apply("v9.9.9", 0.5)
	assert.ErrorIs(t, err, ErrCalibrationUnavailable)
}

func TestCalibrator_RecordCarriesArtifactQualityMetrics(t *testing.T) {
	cal, err := NewCalibrator([]CalibrationArtifact{{
		Version:    "v2.1.0",
		Method:     MethodPlatt,
		PlattA:     3.0,
		PlattB:     -1.5,
		ECE:        0.021,
		BrierScore: 0.003,
	}})
	require.NoError(t, err)

	rec, err := cal.Apply("v2.1.0", 0.82)
	require.NoError(t, err)

	assert.Equal(t, MethodPlatt, rec.Method)
	assert.Equal(t, 0.82, rec.RawScore)
	assert.Equal(t, 0.021, rec.ECE)
	assert.Equal(t, 0.003, rec.BrierScore)
}
