package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/riskengine/internal/domain/valueobject"
)

func concludedEvaluation(t *testing.T) *Evaluation {
	t.Helper()

	e, err := NewEvaluation(uuid.New(), "general", "v2.1.0", "ab12cd34ef56ab12")
	require.NoError(t, err)

	err = e.Conclude(Conclusion{
		Quality: DataQualityReport{Score: 0.95, Usable: true},
		Ensemble: EnsembleResult{
			Signals:   []Signal{{ProviderID: "transformer", RawScore: 0.82}},
			RawScore:  0.82,
			Agreement: 0.9,
		},
		Calibration: CalibrationRecord{Method: "platt", RawScore: 0.82, CalibratedScore: 0.74},
		Uncertainty: UncertaintyEstimate{Epistemic: 0.05, Aleatoric: 0.02, Total: 0.054},
		Prediction:  valueobject.PredictionHighRisk,
		Verdict:     valueobject.VerdictFake,
		Confidence:  0.91,
	}, 12.5)
	require.NoError(t, err)
	return e
}

func buildChain(t *testing.T, n int) []AuditRecord {
	t.Helper()

	var chain []AuditRecord
	var prev *AuditRecord
	for i := 0; i < n; i++ {
		rec, err := NewAuditRecord(concludedEvaluation(t), HashText("article body"))
		require.NoError(t, err)
		sealed := rec.Seal(prev)
		chain = append(chain, sealed)
		prev = &chain[len(chain)-1]
	}
	return chain
}

func TestAuditRecord_RequiresConcludedEvaluation(t *testing.T) {
	e, err := NewEvaluation(uuid.New(), "general", "v2.1.0", "ab12cd34ef56ab12")
	require.NoError(t, err)

	_, err = NewAuditRecord(e, HashText("text"))
	assert.Error(t, err)
}

func TestAuditRecord_FirstSealAnchorsToGenesis(t *testing.T) {
	chain := buildChain(t, 1)

	assert.Equal(t, uint64(1), chain[0].Sequence)
	assert.Equal(t, GenesisHash, chain[0].PrevHash)
	assert.Equal(t, chain[0].ComputeHash(), chain[0].Hash)
}

func TestAuditRecord_ChainVerifies(t *testing.T) {
	chain := buildChain(t, 5)

	require.NoError(t, VerifyChain(chain))
	for i := 1; i < len(chain); i++ {
		assert.Equal(t, chain[i-1].Hash, chain[i].PrevHash)
		assert.Equal(t, chain[i-1].Sequence+1, chain[i].Sequence)
	}
}

func TestAuditRecord_TamperedContentBreaksChain(t *testing.T) {
	chain := buildChain(t, 5)

	chain[2].Calibration.CalibratedScore = 0.01

	err := VerifyChain(chain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash mismatch")
}

func TestAuditRecord_RewrittenLinkBreaksChain(t *testing.T) {
	chain := buildChain(t, 3)

	// Re-seal the middle record against the wrong predecessor.
	chain[1].PrevHash = GenesisHash
	chain[1].Hash = chain[1].ComputeHash()

	err := VerifyChain(chain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken link")
}

func TestAuditRecord_SequenceGapDetected(t *testing.T) {
	chain := buildChain(t, 4)

	truncated := append([]AuditRecord{}, chain[0], chain[2], chain[3])

	err := VerifyChain(truncated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence gap")
}

func TestHashText_IsStable(t *testing.T) {
	assert.Equal(t, HashText("same input"), HashText("same input"))
	assert.NotEqual(t, HashText("one"), HashText("two"))
	assert.Len(t, HashText("x"), 64)
}
