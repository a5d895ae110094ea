package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/veridex/riskengine/internal/application/dto"
	"github.com/veridex/riskengine/internal/application/usecase"
	"github.com/veridex/riskengine/internal/domain/port"
)

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	evaluateText *usecase.EvaluateText
	governance   *usecase.Governance
	logger       *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(
	evaluateText *usecase.EvaluateText,
	governance *usecase.Governance,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		evaluateText: evaluateText,
		governance:   governance,
		logger:       logger,
	}
}

// Proto-aligned request/response message types.

// EvaluateTextRequest represents the proto EvaluateTextRequest message.
type EvaluateTextRequest struct {
	ScanID    string `json:"scan_id"`
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
	Domain    string `json:"domain"`
}

// EvaluationMsg represents the proto Evaluation message.
type EvaluationMsg struct {
	ScanID            string  `json:"scan_id"`
	Prediction        string  `json:"prediction"`
	Verdict           string  `json:"verdict"`
	Reason            string  `json:"reason"`
	RawScore          float64 `json:"raw_score"`
	CalibratedScore   float64 `json:"calibrated_score"`
	Confidence        float64 `json:"confidence"`
	Uncertainty       float64 `json:"uncertainty"`
	EnsembleAgreement float64 `json:"ensemble_agreement"`
	ModelVersion      string  `json:"model_version"`
	ModelHash         string  `json:"model_hash"`
	InferenceTimeMS   float64 `json:"inference_time_ms"`
	AuditSequence     uint64  `json:"audit_sequence"`
}

// EvaluateTextResponse represents the proto EvaluateTextResponse message.
type EvaluateTextResponse struct {
	Evaluation *EvaluationMsg `json:"evaluation"`
}

// GetDriftStatusRequest represents the proto GetDriftStatusRequest message.
type GetDriftStatusRequest struct{}

// DriftStatusMsg represents the proto DriftStatus message.
type DriftStatusMsg struct {
	ModelVersion string  `json:"model_version"`
	State        string  `json:"state"`
	PSI          float64 `json:"psi"`
	KLDivergence float64 `json:"kl_divergence"`
	WindowFill   int     `json:"window_fill"`
	WindowSize   int     `json:"window_size"`
}

// GetDriftStatusResponse represents the proto GetDriftStatusResponse message.
type GetDriftStatusResponse struct {
	Statuses []*DriftStatusMsg `json:"statuses"`
}

// EvaluateText handles a text evaluation request.
func (h *RiskServiceHandler) EvaluateText(ctx context.Context, req *EvaluateTextRequest) (*EvaluateTextResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Text == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	var scanID uuid.UUID
	if req.ScanID != "" {
		var err error
		scanID, err = uuid.Parse(req.ScanID)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid scan_id: %v", err)
		}
	}

	result, err := h.evaluateText.Execute(ctx, dto.EvaluateTextRequest{
		ScanID:    scanID,
		Text:      req.Text,
		SourceURL: req.SourceURL,
		Domain:    req.Domain,
	})
	if err != nil {
		h.logger.Error("failed to evaluate text",
			slog.String("scan_id", scanID.String()),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, usecase.ErrAuditWriteFailure):
			return nil, status.Error(codes.Unavailable, "verdict withheld: audit record could not be written")
		case errors.Is(err, port.ErrNoActiveVersion):
			return nil, status.Error(codes.FailedPrecondition, "no active model version")
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, "request canceled")
		default:
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	return &EvaluateTextResponse{
		Evaluation: &EvaluationMsg{
			ScanID:            result.ScanID.String(),
			Prediction:        result.Prediction,
			Verdict:           result.Verdict,
			Reason:            result.Reason,
			RawScore:          result.RawScore,
			CalibratedScore:   result.CalibratedScore,
			Confidence:        result.Confidence,
			Uncertainty:       result.Uncertainty,
			EnsembleAgreement: result.EnsembleAgreement,
			ModelVersion:      result.ModelVersion,
			ModelHash:         result.ModelHash,
			InferenceTimeMS:   result.InferenceTimeMS,
			AuditSequence:     result.AuditSequence,
		},
	}, nil
}

// GetDriftStatus handles a drift status request.
func (h *RiskServiceHandler) GetDriftStatus(ctx context.Context, req *GetDriftStatusRequest) (*GetDriftStatusResponse, error) {
	resp := h.governance.DriftStatus(ctx)

	statuses := make([]*DriftStatusMsg, 0, len(resp.Statuses))
	for _, s := range resp.Statuses {
		statuses = append(statuses, &DriftStatusMsg{
			ModelVersion: s.ModelVersion,
			State:        s.StateLabel,
			PSI:          s.PSI,
			KLDivergence: s.KLDivergence,
			WindowFill:   s.WindowFill,
			WindowSize:   s.WindowSize,
		})
	}

	return &GetDriftStatusResponse{Statuses: statuses}, nil
}
