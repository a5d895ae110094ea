package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/veridex/riskengine/internal/domain/port"
)

// ReadinessCheck reports a dependency's availability by name.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler provides HTTP health check endpoints.
type HealthHandler struct {
	logger    *slog.Logger
	breakers  port.BreakerStateReader
	checks    map[string]ReadinessCheck
	startTime time.Time
}

// NewHealthHandler creates a new health check handler. Checks may be nil.
func NewHealthHandler(logger *slog.Logger, breakers port.BreakerStateReader, checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		breakers:  breakers,
		checks:    checks,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime"`
	Providers map[string]string `json:"providers,omitempty"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /ml/health", h.Healthz)
}

// Healthz handles liveness probe requests. Open provider breakers are
// reported but do not fail liveness; the ensemble degrades, it does not die.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "risk-engine",
		Uptime:  time.Since(h.startTime).String(),
	}
	if h.breakers != nil {
		resp.Providers = h.breakers.BreakerStates()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Readyz handles readiness probe requests.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := ReadinessResponse{
		Status:  "ready",
		Service: "risk-engine",
		Checks:  make(map[string]string, len(h.checks)),
	}

	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			h.logger.Warn("readiness check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		resp.Checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
