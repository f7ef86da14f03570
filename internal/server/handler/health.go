package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks reachability of one backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// pingTimeout bounds each dependency check so a hung backend cannot stall
// the health endpoint.
const pingTimeout = 2 * time.Second

// HealthHandler serves the health-check endpoint, reporting per-dependency
// reachability for whatever backends are configured.
type HealthHandler struct {
	deps   map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided logger.
// Dependencies are registered with Register.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		deps:   make(map[string]Pinger),
		logger: logger,
	}
}

// Register adds a named dependency to the health report. Nil pingers are
// ignored so callers can pass optional backends unconditionally.
func (h *HealthHandler) Register(name string, p Pinger) {
	if p != nil {
		h.deps[name] = p
	}
}

// HealthCheck responds with the service status and the reachability of each
// registered dependency. The endpoint returns 200 while the process is alive
// even when a dependency is down; consumers inspect the per-dependency map.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.deps))
	for name, p := range h.deps {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("health check dependency unreachable",
				slog.String("dependency", name),
				slog.String("error", err.Error()),
			)
			checks[name] = "unreachable"
		} else {
			checks[name] = "ok"
		}
		cancel()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"dependencies": checks,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}
