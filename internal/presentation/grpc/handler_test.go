package grpc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/veridex/riskengine/internal/application/usecase"
	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/service"
	"github.com/veridex/riskengine/internal/infrastructure/memory"
	"github.com/veridex/riskengine/internal/infrastructure/messaging"
	"github.com/veridex/riskengine/internal/infrastructure/registry"
)

const sampleArticle = "Researchers at the national weather institute published a seasonal " +
	"forecast on Monday. The report predicts average rainfall across most regions and " +
	"slightly warmer temperatures along the coast. Farmers were advised to plan planting " +
	"schedules around the updated projections for the coming quarter."

// --- Mock implementations ---

type stubProvider struct {
	id    string
	score float64
	err   error
}

func (s stubProvider) ProviderID() string { return s.id }

func (s stubProvider) Score(_ context.Context, _ string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

type failingAudit struct{}

func (failingAudit) Append(_ context.Context, _ model.AuditRecord) (model.AuditRecord, error) {
	return model.AuditRecord{}, fmt.Errorf("audit store unavailable")
}

func (failingAudit) Page(_ context.Context, _ uint64, _ int) ([]model.AuditRecord, error) {
	return nil, nil
}

func (failingAudit) Head(_ context.Context) (*model.AuditRecord, error) { return nil, nil }

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildTestHandler(t *testing.T, audit port.AuditChain) *RiskServiceHandler {
	t.Helper()

	logger := testLogger()
	publisher := messaging.NewLogPublisher(logger)

	reg := registry.NewModelRegistry(model.ReleasePolicy{MinPrecision: 0.92})
	require.NoError(t, reg.Seed(
		[]model.ModelVersion{{
			Domain:  "general",
			Version: "v2.1.0",
			Hash:    model.ComputeModelHash("risk-ensemble", "v2.1.0"),
			Card: model.ModelCard{
				ModelID:       "risk-ensemble",
				Version:       "v2.1.0",
				Purpose:       "text risk evaluation",
				ProhibitedUse: []string{"automated enforcement without human review"},
			},
		}},
		map[string]string{"general": "v2.1.0"},
	))

	ensemble, err := service.NewSignalEnsemble(
		[]port.SignalProvider{
			stubProvider{id: "transformer", score: 0.20},
			stubProvider{id: "linear", score: 0.22},
			stubProvider{id: "rules", score: 0.18},
		},
		service.EnsembleConfig{
			Weights:   map[string]float64{"transformer": 1, "linear": 1, "rules": 1},
			MinQuorum: 2,
		},
		testLogger(),
	)
	require.NoError(t, err)

	calibrator, err := service.NewCalibrator([]service.CalibrationArtifact{{
		Version: "v2.1.0",
		Method:  "platt",
		PlattA:  4.0,
		PlattB:  -2.0,
	}})
	require.NoError(t, err)

	drift := service.NewDriftMonitor(500, publisher, logger)

	evaluate := usecase.NewEvaluateText(
		service.NewDataQualityGate(service.DefaultQualityGateConfig()),
		ensemble,
		calibrator,
		service.NewEnsembleVarianceEstimator(0.25),
		service.NewPoliticalClassifier(0.3),
		service.NewGovernancePolicy(service.DefaultThresholds(), map[string]service.Thresholds{
			"political": service.PoliticalThresholds(),
		}),
		reg,
		audit,
		publisher,
		drift,
		time.Second,
		logger,
	)

	return NewRiskServiceHandler(evaluate, usecase.NewGovernance(reg, audit, drift), logger)
}

// --- Tests ---

func TestEvaluateText(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t, memory.NewAuditChain())
		_, err := h.EvaluateText(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("empty text returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t, memory.NewAuditChain())
		_, err := h.EvaluateText(context.Background(), &EvaluateTextRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid scan_id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t, memory.NewAuditChain())
		_, err := h.EvaluateText(context.Background(), &EvaluateTextRequest{
			ScanID: "bad-uuid",
			Text:   sampleArticle,
		})
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid scan_id")
	})

	t.Run("happy path returns evaluation", func(t *testing.T) {
		h := buildTestHandler(t, memory.NewAuditChain())
		resp, err := h.EvaluateText(context.Background(), &EvaluateTextRequest{Text: sampleArticle})
		require.NoError(t, err)
		require.NotNil(t, resp.Evaluation)
		assert.Equal(t, "LOW_RISK", resp.Evaluation.Prediction)
		assert.Equal(t, "REAL", resp.Evaluation.Verdict)
		assert.Equal(t, "v2.1.0", resp.Evaluation.ModelVersion)
		assert.NotZero(t, resp.Evaluation.AuditSequence)
	})

	t.Run("audit write failure returns Unavailable", func(t *testing.T) {
		h := buildTestHandler(t, failingAudit{})
		_, err := h.EvaluateText(context.Background(), &EvaluateTextRequest{Text: sampleArticle})
		requireGRPCCode(t, err, codes.Unavailable)
	})
}

func TestGetDriftStatus(t *testing.T) {
	t.Run("empty monitor returns no statuses", func(t *testing.T) {
		h := buildTestHandler(t, memory.NewAuditChain())
		resp, err := h.GetDriftStatus(context.Background(), &GetDriftStatusRequest{})
		require.NoError(t, err)
		assert.Empty(t, resp.Statuses)
	})

	t.Run("evaluations surface the version", func(t *testing.T) {
		h := buildTestHandler(t, memory.NewAuditChain())
		_, err := h.EvaluateText(context.Background(), &EvaluateTextRequest{Text: sampleArticle})
		require.NoError(t, err)

		resp, err := h.GetDriftStatus(context.Background(), &GetDriftStatusRequest{})
		require.NoError(t, err)
		require.Len(t, resp.Statuses, 1)
		assert.Equal(t, "v2.1.0", resp.Statuses[0].ModelVersion)
	})
}

// requireGRPCCode asserts that an error is a gRPC status error with the given code.
func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %T: %v", err, err)
	assert.Equal(t, code, st.Code(), "expected gRPC code %s, got %s: %s", code, st.Code(), st.Message())
}
