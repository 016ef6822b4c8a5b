package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/json"
)

var startTime = time.Now()

// Check probes one dependency; a nil error means it is reachable.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Handler struct {
	checks  []Check
	healthy atomic.Bool
}

func NewHandler(checks ...Check) *Handler {
	h := &Handler{checks: checks}
	h.healthy.Store(true)
	return h
}

// SetHealthy flips liveness, e.g. to drain traffic during shutdown.
func (h *Handler) SetHealthy(ok bool) {
	h.healthy.Store(ok)
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the service, including uptime and current timestamp
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Failure      503 {object} healthResponse "Service is unhealthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if !h.healthy.Load() {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	json.Write(w, code, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	})
}

// GetReady godoc
// @Summary      Readiness check
// @Description  Probes Redis and Postgres and reports each dependency
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse
// @Failure      503 {object} healthResponse
// @Router       /ready [get]
func (h *Handler) GetReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(h.checks)),
	}
	code := http.StatusOK

	if !h.healthy.Load() {
		resp.Status, code = "unhealthy", http.StatusServiceUnavailable
	}

	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			resp.Checks[c.Name] = err.Error()
			resp.Status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	json.Write(w, code, resp)
}
