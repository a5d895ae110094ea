package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/service"
)

const validBundle = `
thresholds:
  default:
    low_max: 0.35
    medium_max: 0.65
    min_agreement: 0.50
    max_uncertainty: 0.25
weights:
  transformer: 0.45
  linear: 0.30
  rules: 0.25
min_quorum: 2
calibration:
  - version: v2.1.0
    method: platt
    platt_a: 4.2
    platt_b: -2.1
    ece: 0.031
    brier_score: 0.118
release_policy:
  min_precision: 0.92
  min_recall: 0.85
  max_fp_political: 0.03
  max_uncertainty: 0.15
  max_ece: 0.05
models:
  - domain: general
    active: true
    card:
      model_id: risk-ensemble
      name: risk-ensemble
      version: v2.1.0
      purpose: text risk evaluation
      prohibited_use:
        - automated enforcement without human review
drift_baseline:
  v2.1.0: [0.1, 0.2, 0.3, 0.4, 0.5]
`

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadGovernance(t *testing.T) {
	cfg, err := LoadGovernance(writeBundle(t, validBundle))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MinQuorum)
	assert.Equal(t, 0.45, cfg.Weights["transformer"])
	assert.Equal(t, 0.92, cfg.ReleasePolicy.MinPrecision)
	assert.Len(t, cfg.Calibration, 1)
	assert.Len(t, cfg.DriftBaseline["v2.1.0"], 5)
}

func TestLoadGovernance_MissingFile(t *testing.T) {
	_, err := LoadGovernance(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGovernanceConfig_RequiresModels(t *testing.T) {
	cfg := GovernanceConfig{}
	assert.Error(t, cfg.Validate())
}

func TestGovernanceConfig_RejectsTwoActiveModelsPerDomain(t *testing.T) {
	card := model.ModelCard{
		ModelID:       "risk-ensemble",
		Version:       "v1",
		Purpose:       "text risk evaluation",
		ProhibitedUse: []string{"automated enforcement without human review"},
	}
	second := card
	second.Version = "v2"

	cfg := GovernanceConfig{Models: []SeedModel{
		{Domain: "general", Active: true, Card: card},
		{Domain: "general", Active: true, Card: second},
	}}
	assert.Error(t, cfg.Validate())
}

func TestGovernanceConfig_RejectsInvertedThresholds(t *testing.T) {
	card := model.ModelCard{
		ModelID:       "risk-ensemble",
		Version:       "v1",
		Purpose:       "text risk evaluation",
		ProhibitedUse: []string{"automated enforcement without human review"},
	}
	cfg := GovernanceConfig{
		Models: []SeedModel{{Domain: "general", Card: card}},
		Thresholds: map[string]service.Thresholds{
			"default": {LowMax: 0.7, MediumMax: 0.4},
		},
	}
	assert.Error(t, cfg.Validate())
}

func TestGovernanceConfig_SeedVersions(t *testing.T) {
	cfg, err := LoadGovernance(writeBundle(t, validBundle))
	require.NoError(t, err)

	versions := cfg.SeedVersions()
	require.Len(t, versions, 1)
	assert.Equal(t, "general", versions[0].Domain)
	assert.Equal(t, model.ComputeModelHash("risk-ensemble", "v2.1.0"), versions[0].Hash)

	active := cfg.ActiveVersions()
	assert.Equal(t, "v2.1.0", active["general"])
}

func TestGovernanceConfig_PolicyThresholdsIncludePoliticalBuiltin(t *testing.T) {
	cfg, err := LoadGovernance(writeBundle(t, validBundle))
	require.NoError(t, err)

	defaults, domains := cfg.PolicyThresholds()
	assert.Equal(t, 0.35, defaults.LowMax)

	political, ok := domains["political"]
	require.True(t, ok)
	assert.True(t, political.ExtraCaution)
	assert.Equal(t, -0.10, political.ScoreAdjustment)
}

func TestConfig_LoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8091", cfg.GRPCAddress())
	assert.Equal(t, ":9091", cfg.HTTPAddress())
	assert.Equal(t, "risk.evaluations", cfg.KafkaTopic)
	assert.Equal(t, 500, cfg.DriftWindow)
}
