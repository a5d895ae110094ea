package service

import (
	"fmt"
	"math"

	"github.com/veridex/riskengine/internal/domain/model"
)

// Calibration methods supported by the engine.
const (
	MethodPlatt       = "platt"
	MethodIsotonic    = "isotonic"
	MethodTemperature = "temperature"
)

// IsotonicKnot is one step of a fitted isotonic mapping.
type IsotonicKnot struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// CalibrationArtifact is an immutable mapping fitted offline for one model
// version. The engine only applies artifacts, it never fits them. ECE and
// Brier score are measured offline against the artifact's validation set.
type CalibrationArtifact struct {
	Version     string         `yaml:"version" json:"version"`
	Method      string         `yaml:"method" json:"method"`
	PlattA      float64        `yaml:"platt_a" json:"platt_a,omitempty"`
	PlattB      float64        `yaml:"platt_b" json:"platt_b,omitempty"`
	Temperature float64        `yaml:"temperature" json:"temperature,omitempty"`
	Knots       []IsotonicKnot `yaml:"knots" json:"knots,omitempty"`
	ECE         float64        `yaml:"ece" json:"ece"`
	BrierScore  float64        `yaml:"brier_score" json:"brier_score"`
}

// Validate rejects artifacts that cannot produce a monotonic non-decreasing
// mapping over [0,1].
func (a CalibrationArtifact) Validate() error {
	if a.Version == "" {
		return fmt.Errorf("calibration artifact: version is required")
	}
	switch a.Method {
	case MethodPlatt:
		if a.PlattA <= 0 {
			return fmt.Errorf("calibration artifact %s: platt slope must be positive, got %f", a.Version, a.PlattA)
		}
	case MethodTemperature:
		if a.Temperature <= 0 {
			return fmt.Errorf("calibration artifact %s: temperature must be positive, got %f", a.Version, a.Temperature)
		}
	case MethodIsotonic:
		if len(a.Knots) < 2 {
			return fmt.Errorf("calibration artifact %s: isotonic mapping needs at least two knots", a.Version)
		}
		for i, k := range a.Knots {
			if k.X < 0 || k.X > 1 || k.Y < 0 || k.Y > 1 {
				return fmt.Errorf("calibration artifact %s: knot %d outside [0,1]", a.Version, i)
			}
			if i == 0 {
				continue
			}
			if k.X <= a.Knots[i-1].X {
				return fmt.Errorf("calibration artifact %s: knot abscissas must strictly ascend", a.Version)
			}
			if k.Y < a.Knots[i-1].Y {
				return fmt.Errorf("calibration artifact %s: knot ordinates must be non-decreasing", a.Version)
			}
		}
	default:
		return fmt.Errorf("calibration artifact %s: unknown method %q", a.Version, a.Method)
	}
	return nil
}

// apply maps a raw score through the artifact.
func (a CalibrationArtifact) apply(raw float64) float64 {
	raw = clampUnit(raw)
	switch a.Method {
	case MethodPlatt:
		return clampUnit(sigmoid(a.PlattA*raw + a.PlattB))
	case MethodTemperature:
		return clampUnit(sigmoid(logit(raw) / a.Temperature))
	case MethodIsotonic:
		return clampUnit(a.interpolate(raw))
	default:
		return raw
	}
}

func (a CalibrationArtifact) interpolate(raw float64) float64 {
	knots := a.Knots
	if raw <= knots[0].X {
		return knots[0].Y
	}
	last := knots[len(knots)-1]
	if raw >= last.X {
		return last.Y
	}
	for i := 1; i < len(knots); i++ {
		if raw > knots[i].X {
			continue
		}
		lo, hi := knots[i-1], knots[i]
		t := (raw - lo.X) / (hi.X - lo.X)
		return lo.Y + t*(hi.Y-lo.Y)
	}
	return last.Y
}

// Calibrator applies the versioned calibration artifacts loaded at startup.
type Calibrator struct {
	artifacts map[string]CalibrationArtifact
}

// NewCalibrator validates and indexes the loaded artifacts by version.
func NewCalibrator(artifacts []CalibrationArtifact) (*Calibrator, error) {
	index := make(map[string]CalibrationArtifact, len(artifacts))
	for _, a := range artifacts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[a.Version]; dup {
			return nil, fmt.Errorf("duplicate calibration artifact for version %s", a.Version)
		}
		index[a.Version] = a
	}
	return &Calibrator{artifacts: index}, nil
}

// Apply converts an ensemble raw score into a calibrated probability using
// the mapping for the given model version. A missing mapping is a
// configuration fault, never a silent raw-score fallback.
func (c *Calibrator) Apply(version string, rawScore float64) (model.CalibrationRecord, error) {
	artifact, ok := c.artifacts[version]
	if !ok {
		return model.CalibrationRecord{}, fmt.Errorf("%w for version %s", ErrCalibrationUnavailable, version)
	}

	return model.CalibrationRecord{
		Method:          artifact.Method,
		RawScore:        clampUnit(rawScore),
		CalibratedScore: artifact.apply(rawScore),
		ECE:             artifact.ECE,
		BrierScore:      artifact.BrierScore,
	}, nil
}

// Artifact returns the loaded artifact for a version, if any.
func (c *Calibrator) Artifact(version string) (CalibrationArtifact, bool) {
	a, ok := c.artifacts[version]
	return a, ok
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// logit inverts sigmoid with epsilon clamping at the boundaries.
func logit(p float64) float64 {
	const eps = 1e-10
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}
