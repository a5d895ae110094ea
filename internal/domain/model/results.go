package model

// Signal is a single provider's raw output for one request.
type Signal struct {
	ProviderID string  `json:"provider_id"`
	RawScore   float64 `json:"raw_score"`
	LatencyMS  float64 `json:"latency_ms"`
}

// EnsembleResult aggregates the signals that answered within budget.
// Failed lists providers that errored or timed out and were excluded.
type EnsembleResult struct {
	Signals     []Signal           `json:"signals"`
	RawScore    float64            `json:"raw_score"`
	Agreement   float64            `json:"agreement"`
	WeightsUsed map[string]float64 `json:"weights_used"`
	Failed      []string           `json:"failed,omitempty"`
}

// QualityIssue is one problem found by the data quality gate.
type QualityIssue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// DataQualityReport is the outcome of pre-inference validation. A request
// with Usable=false never reaches the ensemble.
type DataQualityReport struct {
	Score        float64        `json:"score"`
	Issues       []QualityIssue `json:"issues"`
	Usable       bool           `json:"usable"`
	ChecksPassed []string       `json:"checks_passed"`
	ChecksFailed []string       `json:"checks_failed"`
}

// IssueCodes returns the issue codes in report order.
func (r DataQualityReport) IssueCodes() []string {
	codes := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

// CalibrationRecord captures one application of the active calibration
// mapping. ECE and Brier score are properties of the mapping itself,
// precomputed per version.
type CalibrationRecord struct {
	Method          string  `json:"method"`
	RawScore        float64 `json:"raw_score"`
	CalibratedScore float64 `json:"calibrated_score"`
	ECE             float64 `json:"ece"`
	BrierScore      float64 `json:"brier_score"`
}

// UncertaintyEstimate decomposes predictive uncertainty into its epistemic
// and aleatoric components.
type UncertaintyEstimate struct {
	Epistemic          float64 `json:"epistemic"`
	Aleatoric          float64 `json:"aleatoric"`
	Total              float64 `json:"total"`
	AbstainRecommended bool    `json:"abstain"`
	AbstainReason      string  `json:"abstain_reason,omitempty"`
}

// GovernanceFlags are derived independently from the numeric verdict and
// attached regardless of it.
type GovernanceFlags struct {
	PoliticalRiskDetected bool    `json:"political_risk_detected"`
	SensitiveContentScore float64 `json:"sensitive_content_score"`
}
