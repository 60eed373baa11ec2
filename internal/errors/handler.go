package errors

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorResponse represents the error response structure.
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	TraceID string       `json:"trace_id,omitempty"`
}

// ErrorDetails contains the error details.
type ErrorDetails struct {
	Severity  Severity               `json:"severity"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler writes session errors as JSON responses on the stats API.
type ErrorHandler struct {
	logger *logrus.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// HandleError handles an error and writes the appropriate response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := r.Header.Get("X-Request-ID")

	sessErr, ok := GetSessionError(err)
	if !ok {
		sessErr = WrapFatal(err, "api", "An unexpected error occurred")
	}

	logEntry := h.logger.WithFields(logrus.Fields{
		"severity":  sessErr.Severity,
		"component": sessErr.Component,
		"trace_id":  traceID,
		"method":    r.Method,
		"path":      r.URL.Path,
		"remote_ip": r.RemoteAddr,
	})

	switch sessErr.Severity {
	case SeverityFatal:
		logEntry.Error(sessErr.Error())
	case SeverityDegraded, SeverityFrame:
		logEntry.Warn(sessErr.Error())
	default:
		logEntry.Info(sessErr.Error())
	}

	response := ErrorResponse{
		Error: ErrorDetails{
			Severity:  sessErr.Severity,
			Component: sessErr.Component,
			Message:   sessErr.Message,
			Details:   sessErr.Details,
		},
		TraceID: traceID,
	}

	status := sessErr.HTTPStatus
	if status == 0 || status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	h.writeJSON(w, status, response)
}

// HandleNotFound handles 404 errors.
func (h *ErrorHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, NewNotFoundError("endpoint"))
}

// HandleMethodNotAllowed handles 405 errors.
func (h *ErrorHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	err := NewValidationError("Method not allowed").WithStatus(http.StatusMethodNotAllowed)
	h.HandleError(w, r, err)
}

// HandlePanic handles panics in HTTP handlers.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.WithFields(logrus.Fields{
		"panic":     recovered,
		"method":    r.Method,
		"path":      r.URL.Path,
		"remote_ip": r.RemoteAddr,
		"trace_id":  r.Header.Get("X-Request-ID"),
	}).Error("Panic recovered in HTTP handler")

	h.HandleError(w, r, NewInternalError("An unexpected error occurred"))
}

// writeJSON writes a JSON response.
func (h *ErrorHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode error response")
	}
}

// Middleware returns an error handling middleware.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				h.HandlePanic(w, r, recovered)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
