package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Bidon15/summonpredict/internal/pkg/response"
)

// Pinger is a dependency the readiness check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	components map[string]Pinger
	timeout    time.Duration
}

// NewHealthHandler creates a health handler probing the named components.
func NewHealthHandler(components map[string]Pinger) *HealthHandler {
	return &HealthHandler{components: components, timeout: 5 * time.Second}
}

// Health handles GET /health. It succeeds while the process serves requests.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.check(r.Context())
	for _, state := range status {
		if state != "connected" {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "components": status})
			return
		}
	}
	response.OK(w, map[string]any{"status": "ok", "components": status})
}

func (h *HealthHandler) check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.components))
	for name, p := range h.components {
		if err := p.Ping(ctx); err != nil {
			status[name] = "error: " + err.Error()
			continue
		}
		status[name] = "connected"
	}
	return status
}
