package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/riskengine/internal/application/dto"
	"github.com/veridex/riskengine/internal/application/usecase"
	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/service"
	"github.com/veridex/riskengine/internal/infrastructure/memory"
	"github.com/veridex/riskengine/internal/infrastructure/messaging"
	"github.com/veridex/riskengine/internal/infrastructure/registry"
)

const sampleArticle = "The city council approved the annual budget on Tuesday after a " +
	"three hour public session. Officials said the plan allocates funds to road " +
	"maintenance, public libraries and the fire department over the next fiscal year. " +
	"A final vote on the amendments is scheduled for next month."

type stubProvider struct {
	id    string
	score float64
}

func (s stubProvider) ProviderID() string { return s.id }

func (s stubProvider) Score(ctx context.Context, text string) (float64, error) {
	return s.score, nil
}

func newTestMux(t *testing.T) (*http.ServeMux, *registry.ModelRegistry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := messaging.NewLogPublisher(logger)
	audit := memory.NewAuditChain()

	reg := registry.NewModelRegistry(model.ReleasePolicy{
		MinPrecision:   0.92,
		MinRecall:      0.85,
		MaxFPPolitical: 0.03,
		MaxUncertainty: 0.15,
		MaxECE:         0.05,
	})
	active := model.ModelVersion{
		Domain:  "general",
		Version: "v2.1.0",
		Hash:    model.ComputeModelHash("risk-ensemble", "v2.1.0"),
		Card: model.ModelCard{
			ModelID:       "risk-ensemble",
			Version:       "v2.1.0",
			Purpose:       "text risk evaluation",
			ProhibitedUse: []string{"automated enforcement without human review"},
		},
	}
	require.NoError(t, reg.Seed([]model.ModelVersion{active}, map[string]string{"general": "v2.1.0"}))

	ensemble, err := service.NewSignalEnsemble(
		[]port.SignalProvider{
			stubProvider{id: "transformer", score: 0.80},
			stubProvider{id: "linear", score: 0.82},
			stubProvider{id: "rules", score: 0.78},
		},
		service.EnsembleConfig{
			Weights:   map[string]float64{"transformer": 1, "linear": 1, "rules": 1},
			MinQuorum: 2,
		},
		logger,
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
	governance := usecase.NewGovernance(reg, audit, drift)
	promote := usecase.NewPromoteModel(reg, publisher, logger)

	mux := http.NewServeMux()
	NewHandler(evaluate, governance, promote, logger).RegisterRoutes(mux)
	return mux, reg
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload)))
	return rec
}

func getPath(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestEvaluateText_ReturnsVerdict(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := postJSON(t, mux, "/ml/text/risk-evaluate", dto.EvaluateTextRequest{Text: sampleArticle})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.EvaluationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "HIGH_RISK", resp.Prediction)
	assert.Equal(t, "FAKE", resp.Verdict)
	assert.Equal(t, "v2.1.0", resp.ModelVersion)
	assert.NotZero(t, resp.AuditSequence)
	assert.InDelta(t, 0.80, resp.RawScore, 0.001)
}

func TestEvaluateText_RejectsMalformedBody(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ml/text/risk-evaluate",
		bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelCards_ListsRegisteredVersions(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := getPath(mux, "/ml/governance/model-cards")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ModelCardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, "v2.1.0", resp.Cards[0].Version)
	assert.True(t, resp.Cards[0].Active)
}

func TestBiasReport_UnknownVersionReturns404(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := getPath(mux, "/ml/governance/bias-report/v9.9.9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditPage_VerifiesChainAfterEvaluations(t *testing.T) {
	mux, _ := newTestMux(t)

	for range 3 {
		rec := postJSON(t, mux, "/ml/text/risk-evaluate", dto.EvaluateTextRequest{Text: sampleArticle})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := getPath(mux, "/ml/registry/audit?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AuditPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Records, 3)
	assert.True(t, resp.ChainVerified)
}

func TestAuditPage_RejectsBadLimit(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := getPath(mux, "/ml/registry/audit?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDriftStatus_Returns200(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := getPath(mux, "/ml/drift/status")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPromoteModel_GateRejectionReturnsConflict(t *testing.T) {
	mux, reg := newTestMux(t)

	weak := model.ModelVersion{
		Domain:  "general",
		Version: "v3.0.0-rc1",
		Hash:    model.ComputeModelHash("risk-ensemble", "v3.0.0-rc1"),
		Card: model.ModelCard{
			ModelID:       "risk-ensemble",
			Version:       "v3.0.0-rc1",
			Purpose:       "text risk evaluation",
			ProhibitedUse: []string{"automated enforcement without human review"},
			Metrics:       model.CardMetrics{Precision: 0.80, Recall: 0.80},
		},
	}
	require.NoError(t, reg.Register(weak))

	rec := postJSON(t, mux, "/ml/governance/promote", dto.PromoteModelRequest{
		Domain:  "general",
		Version: "v3.0.0-rc1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp dto.PromoteModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Promoted)
	assert.NotEmpty(t, resp.Decision.FailureReasons)
}

func TestPromoteModel_MissingVersionReturns400(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := postJSON(t, mux, "/ml/governance/promote", dto.PromoteModelRequest{Domain: "general"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
