package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const dependencyCheckTimeout = 5 * time.Second

// ModelStatus reports whether the detection model can serve frames
type ModelStatus interface {
	ModelLoaded(ctx context.Context) bool
}

// Dependency is a backing service probed by the extended health check
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	model ModelStatus
	deps  []Dependency
}

// NewHealthChecker creates a new health checker. model may be nil.
func NewHealthChecker(model ModelStatus, deps ...Dependency) *HealthChecker {
	return &HealthChecker{model: model, deps: deps}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string            `json:"status"`
	ModelLoaded bool              `json:"model_loaded"`
	Timestamp   string            `json:"timestamp"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint.
// The basic mode only reports liveness; ?mode=extended probes every dependency
// and answers 503 when any of them fails.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.model != nil {
		response.ModelLoaded = h.model.ModelLoaded(r.Context())
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string, len(h.deps))
		for _, dep := range h.deps {
			if err := h.check(r.Context(), dep); err != nil {
				response.Status = "unhealthy"
				checks[dep.Name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			} else {
				checks[dep.Name] = "healthy"
			}
		}
		response.Checks = checks
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) check(ctx context.Context, dep Dependency) error {
	ctx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
	defer cancel()
	return dep.Check(ctx)
}
