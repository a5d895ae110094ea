package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/veridex/riskengine/internal/domain/model"
)

// EvaluateTextRequest is the input DTO for the EvaluateText use case.
// ScanID is optional; one is assigned when absent.
type EvaluateTextRequest struct {
	ScanID    uuid.UUID `json:"scan_id,omitempty"`
	Text      string    `json:"text"`
	SourceURL string    `json:"source_url,omitempty"`
	Domain    string    `json:"domain,omitempty"`
}

// DataQualitySummary is the quality section of the evaluation response.
type DataQualitySummary struct {
	Score       float64  `json:"score"`
	Usable      bool     `json:"usable"`
	IssuesFound []string `json:"issues_found"`
}

// CalibrationDetails is the calibration section of the evaluation response.
type CalibrationDetails struct {
	Method     string  `json:"method"`
	ECE        float64 `json:"ece"`
	BrierScore float64 `json:"brier_score"`
}

// UncertaintyDetails is the uncertainty section of the evaluation response.
type UncertaintyDetails struct {
	Total     float64 `json:"total"`
	Epistemic float64 `json:"epistemic"`
	Aleatoric float64 `json:"aleatoric"`
	Abstain   bool    `json:"abstain"`
}

// GovernanceFlags is the flags section of the evaluation response.
type GovernanceFlags struct {
	PoliticalRiskDetected bool    `json:"political_risk_detected"`
	SensitiveContentScore float64 `json:"sensitive_content_score"`
}

// EvaluationResponse is the government output format returned for every
// evaluation, abstentions included.
type EvaluationResponse struct {
	ScanID            uuid.UUID          `json:"scan_id"`
	Prediction        string             `json:"prediction"`
	Verdict           string             `json:"verdict"`
	Reason            string             `json:"reason,omitempty"`
	RawScore          float64            `json:"raw_score"`
	CalibratedScore   float64            `json:"calibrated_score"`
	Confidence        float64            `json:"confidence"`
	Uncertainty       float64            `json:"uncertainty"`
	EnsembleAgreement float64            `json:"ensemble_agreement"`
	DataQuality       DataQualitySummary `json:"data_quality"`
	Calibration       CalibrationDetails `json:"calibration_details"`
	UncertaintyDetail UncertaintyDetails `json:"uncertainty_details"`
	Flags             GovernanceFlags    `json:"governance_flags"`
	ModelVersion      string             `json:"model_version"`
	ModelHash         string             `json:"model_hash"`
	InferenceTimeMS   float64            `json:"inference_time_ms"`
	AuditSequence     uint64             `json:"audit_sequence"`
	Timestamp         time.Time          `json:"timestamp"`
}

// FromEvaluation maps a concluded evaluation and its sealed audit record to
// the response DTO.
func FromEvaluation(e *model.Evaluation, auditSequence uint64) EvaluationResponse {
	quality := e.Quality()
	issues := quality.IssueCodes()
	if issues == nil {
		issues = []string{}
	}

	return EvaluationResponse{
		ScanID:            e.ScanID(),
		Prediction:        e.Prediction().String(),
		Verdict:           e.Verdict().String(),
		Reason:            e.Reason(),
		RawScore:          e.Ensemble().RawScore,
		CalibratedScore:   e.Calibration().CalibratedScore,
		Confidence:        e.Confidence(),
		Uncertainty:       e.Uncertainty().Total,
		EnsembleAgreement: e.Ensemble().Agreement,
		DataQuality: DataQualitySummary{
			Score:       quality.Score,
			Usable:      quality.Usable,
			IssuesFound: issues,
		},
		Calibration: CalibrationDetails{
			Method:     e.Calibration().Method,
			ECE:        e.Calibration().ECE,
			BrierScore: e.Calibration().BrierScore,
		},
		UncertaintyDetail: UncertaintyDetails{
			Total:     e.Uncertainty().Total,
			Epistemic: e.Uncertainty().Epistemic,
			Aleatoric: e.Uncertainty().Aleatoric,
			Abstain:   e.Uncertainty().AbstainRecommended,
		},
		Flags: GovernanceFlags{
			PoliticalRiskDetected: e.Flags().PoliticalRiskDetected,
			SensitiveContentScore: e.Flags().SensitiveContentScore,
		},
		ModelVersion:    e.ModelVersion(),
		ModelHash:       e.ModelHash(),
		InferenceTimeMS: e.InferenceTimeMS(),
		AuditSequence:   auditSequence,
		Timestamp:       e.EvaluatedAt(),
	}
}
