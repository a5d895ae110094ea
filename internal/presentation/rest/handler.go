package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/veridex/riskengine/internal/application/dto"
	"github.com/veridex/riskengine/internal/application/usecase"
	"github.com/veridex/riskengine/internal/domain/port"
)

// Handler exposes the evaluation and governance endpoints.
type Handler struct {
	evaluate   *usecase.EvaluateText
	governance *usecase.Governance
	promote    *usecase.PromoteModel
	logger     *slog.Logger
}

// NewHandler creates the REST handler.
func NewHandler(
	evaluate *usecase.EvaluateText,
	governance *usecase.Governance,
	promote *usecase.PromoteModel,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		evaluate:   evaluate,
		governance: governance,
		promote:    promote,
		logger:     logger,
	}
}

// RegisterRoutes registers all endpoints on the provided ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ml/text/risk-evaluate", h.EvaluateText)
	mux.HandleFunc("GET /ml/governance/model-cards", h.ModelCards)
	mux.HandleFunc("GET /ml/governance/release-policy", h.ReleasePolicy)
	mux.HandleFunc("GET /ml/governance/bias-report/{id}", h.BiasReport)
	mux.HandleFunc("POST /ml/governance/promote", h.PromoteModel)
	mux.HandleFunc("GET /ml/drift/status", h.DriftStatus)
	mux.HandleFunc("GET /ml/registry/audit", h.AuditPage)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// EvaluateText handles POST /ml/text/risk-evaluate.
func (h *Handler) EvaluateText(w http.ResponseWriter, r *http.Request) {
	var req dto.EvaluateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.evaluate.Execute(r.Context(), req)
	if err != nil {
		h.logger.Error("evaluation failed",
			slog.String("scan_id", req.ScanID.String()),
			slog.String("error", err.Error()),
		)
		writeJSON(w, statusFor(err), errorResponse{Error: publicMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ModelCards handles GET /ml/governance/model-cards.
func (h *Handler) ModelCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.governance.ModelCards(r.Context()))
}

// ReleasePolicy handles GET /ml/governance/release-policy.
func (h *Handler) ReleasePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.governance.ReleasePolicy(r.Context()))
}

// BiasReport handles GET /ml/governance/bias-report/{id}.
func (h *Handler) BiasReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.governance.BiasReport(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, port.ErrVersionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "model version not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PromoteModel handles POST /ml/governance/promote.
func (h *Handler) PromoteModel(w http.ResponseWriter, r *http.Request) {
	var req dto.PromoteModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Version == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "version is required"})
		return
	}

	resp, err := h.promote.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, port.ErrVersionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "model version not found"})
			return
		}
		h.logger.Error("promotion failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	status := http.StatusOK
	if !resp.Promoted {
		// The gate decision is a successful answer, not an error; but an
		// explicit conflict status makes automation simpler.
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

// DriftStatus handles GET /ml/drift/status.
func (h *Handler) DriftStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.governance.DriftStatus(r.Context()))
}

// AuditPage handles GET /ml/registry/audit?after=<seq>&limit=<n>.
func (h *Handler) AuditPage(w http.ResponseWriter, r *http.Request) {
	after, err := parseUintParam(r, "after", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid after parameter"})
		return
	}
	limit, err := parseUintParam(r, "limit", 100)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
		return
	}

	resp, err := h.governance.AuditPage(r.Context(), dto.AuditPageRequest{
		After: after,
		Limit: int(limit),
	})
	if err != nil {
		h.logger.Error("audit page read failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrAuditWriteFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, port.ErrNoActiveVersion):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrAuditWriteFailure):
		return "verdict withheld: audit record could not be written"
	case errors.Is(err, port.ErrNoActiveVersion):
		return "no active model version"
	default:
		return "internal error"
	}
}

func parseUintParam(r *http.Request, name string, def uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload) //nolint:errcheck
}
