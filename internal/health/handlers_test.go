package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/viewport/internal/errors"
)

func TestNewHandler(t *testing.T) {
	logger := logrus.New()
	manager := NewManager(logger)
	handler := NewHandler(manager)

	assert.NotNil(t, handler)
	assert.Equal(t, manager, handler.manager)
	assert.NotZero(t, handler.startTime)
}

func TestHandleHealth(t *testing.T) {
	logger := logrus.New()
	manager := NewManager(logger)

	manager.Register(&mockChecker{name: "test", err: nil})

	handler := NewHandler(manager)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))

	var response Response
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, response.Status)
	assert.NotZero(t, response.Timestamp)
	assert.NotEmpty(t, response.Version)
	assert.NotEmpty(t, response.Uptime)
	assert.Contains(t, response.Checks, "test")
}

func TestHandleHealthWithFailingChecker(t *testing.T) {
	logger := logrus.New()
	manager := NewManager(logger)

	manager.Register(&mockChecker{name: "failing", err: assert.AnError})

	handler := NewHandler(manager)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var response Response
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, StatusDown, response.Status)
}

func TestHandleHealthDegradedStays200(t *testing.T) {
	logger := logrus.New()
	manager := NewManager(logger)

	// Degraded sessions keep serving: a lost export or an offline device
	// should not flip load balancers away from the stats endpoint.
	manager.Register(&mockChecker{
		name: "degraded",
		err:  apperrors.Degraded("adb", "device offline"),
	})

	handler := NewHandler(manager)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response Response
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, response.Status)
	require.Contains(t, response.Checks, "degraded")
	assert.Equal(t, StatusDegraded, response.Checks["degraded"].Status)
}

func TestHandleReady(t *testing.T) {
	logger := logrus.New()
	manager := NewManager(logger)

	manager.Register(&mockChecker{name: "test", err: nil})
	manager.RunChecks(context.Background())

	handler := NewHandler(manager)

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	handler.HandleReady(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Status    Status    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, response.Status)
	assert.NotZero(t, response.Timestamp)
}

func TestHandleLive(t *testing.T) {
	logger := logrus.New()
	manager := NewManager(logger)
	handler := NewHandler(manager)

	req := httptest.NewRequest("GET", "/live", nil)
	rr := httptest.NewRecorder()

	handler.HandleLive(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "alive", response.Status)
	assert.NotZero(t, response.Timestamp)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "zero",
			duration: 0,
			expected: "0 seconds",
		},
		{
			name:     "seconds only",
			duration: 45 * time.Second,
			expected: "45 seconds",
		},
		{
			name:     "singular units",
			duration: 24*time.Hour + time.Hour + time.Minute + time.Second,
			expected: "1 day 1 hour 1 minute 1 second",
		},
		{
			name:     "minutes and seconds",
			duration: 2*time.Minute + 30*time.Second,
			expected: "2 minutes 30 seconds",
		},
		{
			name:     "hours minutes seconds",
			duration: 3*time.Hour + 15*time.Minute + 45*time.Second,
			expected: "3 hours 15 minutes 45 seconds",
		},
		{
			name:     "days with zero middle units skipped",
			duration: 2*24*time.Hour + 30*time.Second,
			expected: "2 days 30 seconds",
		},
		{
			name:     "whole days",
			duration: 3 * 24 * time.Hour,
			expected: "3 days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}
