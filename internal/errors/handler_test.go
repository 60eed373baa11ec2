package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorHandler(t *testing.T) {
	logger := logrus.New()
	handler := NewErrorHandler(logger)

	assert.NotNil(t, handler)
	assert.Equal(t, logger, handler.logger)
}

func TestHandleError(t *testing.T) {
	logger := logrus.New()
	handler := NewErrorHandler(logger)

	tests := []struct {
		name             string
		err              error
		expectedStatus   int
		expectedSeverity Severity
	}{
		{
			name:             "validation error",
			err:              NewValidationError("invalid input"),
			expectedStatus:   http.StatusBadRequest,
			expectedSeverity: SeverityInfo,
		},
		{
			name:             "standard error",
			err:              errors.New("something went wrong"),
			expectedStatus:   http.StatusInternalServerError,
			expectedSeverity: SeverityFatal,
		},
		{
			name:             "not found error",
			err:              NewNotFoundError("session"),
			expectedStatus:   http.StatusNotFound,
			expectedSeverity: SeverityInfo,
		},
		{
			name:             "degraded pipeline error",
			err:              Degraded("processing", "calibration file missing"),
			expectedStatus:   http.StatusServiceUnavailable,
			expectedSeverity: SeverityDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Request-ID", "test-123")
			rr := httptest.NewRecorder()

			handler.HandleError(rr, req, tt.err)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var response ErrorResponse
			err := json.Unmarshal(rr.Body.Bytes(), &response)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedSeverity, response.Error.Severity)
			assert.NotEmpty(t, response.Error.Message)
			assert.Equal(t, "test-123", response.TraceID)
		})
	}
}

func TestHandleNotFound(t *testing.T) {
	logger := logrus.New()
	handler := NewErrorHandler(logger)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	rr := httptest.NewRecorder()

	handler.HandleNotFound(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var response ErrorResponse
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Contains(t, response.Error.Message, "endpoint")
}

func TestHandleMethodNotAllowed(t *testing.T) {
	logger := logrus.New()
	handler := NewErrorHandler(logger)

	req := httptest.NewRequest("POST", "/get-only-endpoint", nil)
	rr := httptest.NewRecorder()

	handler.HandleMethodNotAllowed(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	var response ErrorResponse
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Contains(t, response.Error.Message, "Method not allowed")
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	logger := logrus.New()
	handler := NewErrorHandler(logger)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest("GET", "/panic", nil)
	rr := httptest.NewRecorder()

	handler.Middleware(panicking).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var response ErrorResponse
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, SeverityFatal, response.Error.Severity)
}

func TestMiddlewarePassesThrough(t *testing.T) {
	logger := logrus.New()
	handler := NewErrorHandler(logger)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/ok", nil)
	rr := httptest.NewRecorder()

	handler.Middleware(ok).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}
