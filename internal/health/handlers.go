package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zsiec/viewport/pkg/version"
)

// Response represents the health check response.
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]*Check `json:"checks,omitempty"`
}

// Handler handles health check HTTP endpoints.
type Handler struct {
	manager   *Manager
	startTime time.Time
}

// NewHandler creates a new health check handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager:   manager,
		startTime: time.Now(),
	}
}

// HandleHealth handles the /health endpoint.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	// Run health checks with request context
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.manager.RunChecks(ctx)
	overallStatus := h.manager.GetOverallStatus()

	response := Response{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   version.Version,
		Uptime:    h.getUptime(),
		Checks:    checks,
	}

	// Set appropriate status code
	statusCode := http.StatusOK
	if overallStatus == StatusDegraded {
		statusCode = http.StatusOK // Still return 200 for degraded
	} else if overallStatus == StatusDown {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, response)
}

// HandleReady handles the /ready endpoint (simplified health check).
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := h.manager.GetOverallStatus()

	response := struct {
		Status    Status    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    overallStatus,
		Timestamp: time.Now(),
	}

	statusCode := http.StatusOK
	if overallStatus == StatusDown {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, response)
}

// HandleLive handles the /live endpoint (basic liveness check).
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    "alive",
		Timestamp: time.Now(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// getUptime calculates the service uptime.
func (h *Handler) getUptime() string {
	return formatUptime(time.Since(h.startTime))
}

// formatUptime renders a duration like "2 days 6 hours 15 seconds",
// skipping zero units. Sub-minute uptimes always report seconds.
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	units := []struct {
		value int
		name  string
	}{
		{total / 86400, "day"},
		{total / 3600 % 24, "hour"},
		{total / 60 % 60, "minute"},
		{total % 60, "second"},
	}

	parts := make([]string, 0, len(units))
	for _, u := range units {
		if u.value == 0 && !(u.name == "second" && len(parts) == 0) {
			continue
		}
		name := u.name
		if u.value != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", u.value, name))
	}
	return strings.Join(parts, " ")
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.manager.logger.WithError(err).Error("Failed to encode health response")
	}
}
