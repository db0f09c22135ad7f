package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"xray-sync/internal/repository"
)

const serviceName = "xray-sync"

// HealthResponse represents the JSON response for health endpoints
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// ReadinessResponse represents the JSON response for readiness endpoints
type ReadinessResponse struct {
	Status       string                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Dependencies map[string]interface{} `json:"dependencies"`
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	registry repository.KeyRegistry
	version  string
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(registry repository.KeyRegistry, version string) *HealthHandler {
	return &HealthHandler{
		registry: registry,
		version:  version,
	}
}

// HandleHealth handles the /health liveness endpoint
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("Method not allowed\n"))
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   serviceName,
		Version:   h.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// HandleReady handles the /ready endpoint, reporting key registry connectivity
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("Method not allowed\n"))
		return
	}

	registryStatus := h.checkRegistry(r.Context())

	overallStatus := "ready"
	statusCode := http.StatusOK

	if !registryStatus["healthy"].(bool) {
		overallStatus = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadinessResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Service:   serviceName,
		Dependencies: map[string]interface{}{
			"registry": registryStatus,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// checkRegistry pings the key registry with a 5-second timeout
func (h *HealthHandler) checkRegistry(ctx context.Context) map[string]interface{} {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.registry.Ping(timeoutCtx)
	duration := time.Since(start)

	if err != nil {
		return map[string]interface{}{
			"healthy":          false,
			"error":            err.Error(),
			"response_time_ms": duration.Milliseconds(),
		}
	}

	return map[string]interface{}{
		"healthy":          true,
		"status":           "connected",
		"response_time_ms": duration.Milliseconds(),
	}
}
