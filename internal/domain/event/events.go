package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeEvaluationCompleted is emitted once per concluded evaluation.
	EventTypeEvaluationCompleted = "risk.evaluation.completed"

	// EventTypeHighRiskDetected is emitted when a HIGH_RISK prediction is issued.
	EventTypeHighRiskDetected = "risk.high_risk.detected"

	// EventTypeDriftStateChanged is emitted when the drift monitor crosses a threshold.
	EventTypeDriftStateChanged = "risk.drift.state_changed"

	// EventTypeModelPromoted is emitted when a candidate version passes the release gate.
	EventTypeModelPromoted = "risk.model.promoted"
)

// EvaluationCompleted is published after a verdict has been audited. The
// drift monitor consumes this stream out-of-band.
type EvaluationCompleted struct {
	ScanID          uuid.UUID `json:"scan_id"`
	Domain          string    `json:"domain"`
	Prediction      string    `json:"prediction"`
	Verdict         string    `json:"verdict"`
	CalibratedScore float64   `json:"calibrated_score"`
	Uncertainty     float64   `json:"uncertainty"`
	Agreement       float64   `json:"agreement"`
	ModelVersion    string    `json:"model_version"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// NewEvaluationCompleted builds the completion event.
func NewEvaluationCompleted(
	scanID uuid.UUID, domain, prediction, verdict string,
	calibratedScore, uncertainty, agreement float64,
	modelVersion string, evaluatedAt time.Time,
) EvaluationCompleted {
	return EvaluationCompleted{
		ScanID:          scanID,
		Domain:          domain,
		Prediction:      prediction,
		Verdict:         verdict,
		CalibratedScore: calibratedScore,
		Uncertainty:     uncertainty,
		Agreement:       agreement,
		ModelVersion:    modelVersion,
		EvaluatedAt:     evaluatedAt,
	}
}

// EventType returns the event type identifier.
func (e EvaluationCompleted) EventType() string { return EventTypeEvaluationCompleted }

// AggregateID returns the scan ID as the aggregate identifier.
func (e EvaluationCompleted) AggregateID() uuid.UUID { return e.ScanID }

// HighRiskDetected is published when text is classified HIGH_RISK, so
// downstream notification plumbing can alert reviewers.
type HighRiskDetected struct {
	ScanID                uuid.UUID `json:"scan_id"`
	Domain                string    `json:"domain"`
	CalibratedScore       float64   `json:"calibrated_score"`
	PoliticalRiskDetected bool      `json:"political_risk_detected"`
	DetectedAt            time.Time `json:"detected_at"`
}

// NewHighRiskDetected builds the high-risk event.
func NewHighRiskDetected(scanID uuid.UUID, domain string, calibratedScore float64, political bool, detectedAt time.Time) HighRiskDetected {
	return HighRiskDetected{
		ScanID:                scanID,
		Domain:                domain,
		CalibratedScore:       calibratedScore,
		PoliticalRiskDetected: political,
		DetectedAt:            detectedAt,
	}
}

// EventType returns the event type identifier.
func (e HighRiskDetected) EventType() string { return EventTypeHighRiskDetected }

// AggregateID returns the scan ID as the aggregate identifier.
func (e HighRiskDetected) AggregateID() uuid.UUID { return e.ScanID }

// DriftStateChanged is published when the monitored score distribution
// crosses a PSI/KL threshold in either direction.
type DriftStateChanged struct {
	ModelVersion string    `json:"model_version"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	PSI          float64   `json:"psi"`
	KLDivergence float64   `json:"kl_divergence"`
	ChangedAt    time.Time `json:"changed_at"`
}

// EventType returns the event type identifier.
func (e DriftStateChanged) EventType() string { return EventTypeDriftStateChanged }

// ModelPromoted is published when the release gate admits a new active version.
type ModelPromoted struct {
	Domain      string    `json:"domain"`
	Version     string    `json:"version"`
	SignedOffBy string    `json:"signed_off_by,omitempty"`
	PromotedAt  time.Time `json:"promoted_at"`
}

// EventType returns the event type identifier.
func (e ModelPromoted) EventType() string { return EventTypeModelPromoted }
