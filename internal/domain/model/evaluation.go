package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/riskengine/internal/domain/event"
	"github.com/veridex/riskengine/internal/domain/valueobject"
)

// Evaluation is the aggregate root for one risk evaluation. It starts open
// and is concluded exactly once; the concluded state is what the verdict
// response and the audit record are built from.
type Evaluation struct {
	evaluatedAt     time.Time
	createdAt       time.Time
	domain          string
	modelVersion    string
	modelHash       string
	reason          string
	prediction      valueobject.Prediction
	verdict         valueobject.Verdict
	quality         DataQualityReport
	ensemble        EnsembleResult
	calibration     CalibrationRecord
	uncertainty     UncertaintyEstimate
	flags           GovernanceFlags
	confidence      float64
	inferenceTimeMS float64
	domainEvents    []any
	concluded       bool
	scanID          uuid.UUID
}

// NewEvaluation opens an evaluation for an incoming scan request.
func NewEvaluation(scanID uuid.UUID, domain, modelVersion, modelHash string) (*Evaluation, error) {
	if scanID == uuid.Nil {
		return nil, fmt.Errorf("scan ID is required")
	}
	if modelVersion == "" {
		return nil, fmt.Errorf("model version is required")
	}
	if modelHash == "" {
		return nil, fmt.Errorf("model hash is required")
	}
	if domain == "" {
		domain = "general"
	}

	return &Evaluation{
		scanID:       scanID,
		domain:       domain,
		modelVersion: modelVersion,
		modelHash:    modelHash,
		createdAt:    time.Now().UTC(),
	}, nil
}

// Conclusion carries the outputs of the decision pipeline into the aggregate.
type Conclusion struct {
	Quality     DataQualityReport
	Ensemble    EnsembleResult
	Calibration CalibrationRecord
	Uncertainty UncertaintyEstimate
	Flags       GovernanceFlags
	Prediction  valueobject.Prediction
	Verdict     valueobject.Verdict
	Reason      string
	Confidence  float64
}

// Conclude records the final decision. It enforces the abstention invariants:
// an unusable input or an abstain recommendation must resolve to HUMAN_REVIEW.
func (e *Evaluation) Conclude(c Conclusion, inferenceTimeMS float64) error {
	if e.concluded {
		return fmt.Errorf("evaluation %s already concluded", e.scanID)
	}
	if c.Prediction.IsZero() {
		return fmt.Errorf("prediction is required")
	}
	if c.Calibration.CalibratedScore < 0 || c.Calibration.CalibratedScore > 1 {
		return fmt.Errorf("calibrated score %f outside [0,1]", c.Calibration.CalibratedScore)
	}
	if !c.Quality.Usable && !c.Prediction.RequiresHuman() {
		return fmt.Errorf("unusable input must resolve to HUMAN_REVIEW, got %s", c.Prediction)
	}
	if c.Uncertainty.AbstainRecommended && !c.Prediction.RequiresHuman() {
		return fmt.Errorf("abstain recommendation must resolve to HUMAN_REVIEW, got %s", c.Prediction)
	}

	e.quality = c.Quality
	e.ensemble = c.Ensemble
	e.calibration = c.Calibration
	e.uncertainty = c.Uncertainty
	e.flags = c.Flags
	e.prediction = c.Prediction
	e.verdict = c.Verdict
	e.reason = c.Reason
	e.confidence = c.Confidence
	e.inferenceTimeMS = inferenceTimeMS
	e.evaluatedAt = time.Now().UTC()
	e.concluded = true

	e.domainEvents = append(e.domainEvents, event.NewEvaluationCompleted(
		e.scanID, e.domain, e.prediction.String(), e.verdict.String(),
		e.calibration.CalibratedScore, e.uncertainty.Total, e.ensemble.Agreement,
		e.modelVersion, e.evaluatedAt,
	))

	if e.prediction.Equal(valueobject.PredictionHighRisk) {
		e.domainEvents = append(e.domainEvents, event.NewHighRiskDetected(
			e.scanID, e.domain, e.calibration.CalibratedScore,
			e.flags.PoliticalRiskDetected, e.evaluatedAt,
		))
	}

	return nil
}

// --- Accessors ---

func (e *Evaluation) ScanID() uuid.UUID                 { return e.scanID }
func (e *Evaluation) Domain() string                    { return e.domain }
func (e *Evaluation) ModelVersion() string              { return e.modelVersion }
func (e *Evaluation) ModelHash() string                 { return e.modelHash }
func (e *Evaluation) Prediction() valueobject.Prediction { return e.prediction }
func (e *Evaluation) Verdict() valueobject.Verdict      { return e.verdict }
func (e *Evaluation) Quality() DataQualityReport        { return e.quality }
func (e *Evaluation) Ensemble() EnsembleResult          { return e.ensemble }
func (e *Evaluation) Calibration() CalibrationRecord    { return e.calibration }
func (e *Evaluation) Uncertainty() UncertaintyEstimate  { return e.uncertainty }
func (e *Evaluation) Flags() GovernanceFlags            { return e.flags }
func (e *Evaluation) Reason() string                    { return e.reason }
func (e *Evaluation) Confidence() float64               { return e.confidence }
func (e *Evaluation) InferenceTimeMS() float64          { return e.inferenceTimeMS }
func (e *Evaluation) EvaluatedAt() time.Time            { return e.evaluatedAt }
func (e *Evaluation) Concluded() bool                   { return e.concluded }

// DomainEvents returns all accumulated domain events and clears them.
func (e *Evaluation) DomainEvents() []any {
	evts := e.domainEvents
	e.domainEvents = nil
	return evts
}
