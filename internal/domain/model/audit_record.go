package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerdictSnapshot is the immutable copy of a concluded evaluation embedded
// in its audit record.
type VerdictSnapshot struct {
	ScanID          uuid.UUID `json:"scan_id"`
	Domain          string    `json:"domain"`
	Prediction      string    `json:"prediction"`
	Verdict         string    `json:"verdict"`
	RawScore        float64   `json:"raw_score"`
	CalibratedScore float64   `json:"calibrated_score"`
	Confidence      float64   `json:"confidence"`
	ModelVersion    string    `json:"model_version"`
	ModelHash       string    `json:"model_hash"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// AuditRecord is one link in the append-only audit chain. Hash covers the
// whole record content (with Hash itself blanked) and PrevHash links to the
// immediately preceding record, so any retroactive edit breaks the chain.
type AuditRecord struct {
	Sequence    uint64              `json:"sequence"`
	ScanID      uuid.UUID           `json:"scan_id"`
	InputHash   string              `json:"input_hash"`
	Verdict     VerdictSnapshot     `json:"verdict"`
	Quality     DataQualityReport   `json:"data_quality"`
	Ensemble    EnsembleResult      `json:"ensemble"`
	Calibration CalibrationRecord   `json:"calibration"`
	Uncertainty UncertaintyEstimate `json:"uncertainty"`
	Flags       GovernanceFlags     `json:"governance_flags"`
	Reason      string              `json:"reason,omitempty"`
	RecordedAt  time.Time           `json:"recorded_at"`
	PrevHash    string              `json:"prev_hash"`
	Hash        string              `json:"hash"`
}

// GenesisHash anchors the first record of every chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// NewAuditRecord builds the unsealed record for a concluded evaluation.
// Sequence, PrevHash and Hash are assigned by the chain on append.
func NewAuditRecord(e *Evaluation, inputHash string) (AuditRecord, error) {
	if !e.Concluded() {
		return AuditRecord{}, fmt.Errorf("cannot audit an unconcluded evaluation")
	}

	return AuditRecord{
		ScanID:    e.ScanID(),
		InputHash: inputHash,
		Verdict: VerdictSnapshot{
			ScanID:          e.ScanID(),
			Domain:          e.Domain(),
			Prediction:      e.Prediction().String(),
			Verdict:         e.Verdict().String(),
			RawScore:        e.Ensemble().RawScore,
			CalibratedScore: e.Calibration().CalibratedScore,
			Confidence:      e.Confidence(),
			ModelVersion:    e.ModelVersion(),
			ModelHash:       e.ModelHash(),
			EvaluatedAt:     e.EvaluatedAt(),
		},
		Quality:     e.Quality(),
		Ensemble:    e.Ensemble(),
		Calibration: e.Calibration(),
		Uncertainty: e.Uncertainty(),
		Flags:       e.Flags(),
		Reason:      e.Reason(),
		RecordedAt:  time.Now().UTC(),
	}, nil
}

// ComputeHash returns the SHA-256 of the record's canonical JSON form with
// the Hash field blanked.
func (r AuditRecord) ComputeHash() string {
	r.Hash = ""
	payload, err := json.Marshal(r)
	if err != nil {
		// All field types marshal; this is unreachable with valid records.
		panic(fmt.Sprintf("audit record marshal: %v", err))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Seal assigns the chain position and computes the content hash. prev is nil
// for the first record of a chain.
func (r AuditRecord) Seal(prev *AuditRecord) AuditRecord {
	if prev == nil {
		r.Sequence = 1
		r.PrevHash = GenesisHash
	} else {
		r.Sequence = prev.Sequence + 1
		r.PrevHash = prev.Hash
	}
	r.Hash = r.ComputeHash()
	return r
}

// VerifyChain checks that a contiguous slice of records forms a valid
// hash-linked sequence: hashes recompute, links match, sequences ascend.
func VerifyChain(records []AuditRecord) error {
	for i, rec := range records {
		if got := rec.ComputeHash(); got != rec.Hash {
			return fmt.Errorf("record %d: content hash mismatch", rec.Sequence)
		}
		if i == 0 {
			continue
		}
		prev := records[i-1]
		if rec.Sequence != prev.Sequence+1 {
			return fmt.Errorf("record %d: sequence gap after %d", rec.Sequence, prev.Sequence)
		}
		if rec.PrevHash != prev.Hash {
			return fmt.Errorf("record %d: broken link to record %d", rec.Sequence, prev.Sequence)
		}
	}
	return nil
}

// HashText returns the normalized input hash recorded in place of raw text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
