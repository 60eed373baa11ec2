package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Severity classifies how much of the session an error takes down.
type Severity string

const (
	// SeverityFatal terminates the session (invalid first frame, export
	// stream write failure, renderer loss).
	SeverityFatal Severity = "FATAL"
	// SeverityDegraded disables one feature and continues (missing
	// calibration file, still-image directory not writable).
	SeverityDegraded Severity = "DEGRADED"
	// SeverityFrame affects a single frame only; the next frame proceeds.
	SeverityFrame Severity = "FRAME"
	// SeverityInfo is an expected condition reported for visibility
	// (pause while paused, frame skipped).
	SeverityInfo Severity = "INFO"
)

// Sentinel errors for steady-state conditions tested with errors.Is.
var (
	// ErrSinkClosed is returned by frame sinks after Close.
	ErrSinkClosed = errors.New("frame sink closed")
	// ErrInvalidFrame is returned for frames with out-of-range dimensions.
	ErrInvalidFrame = errors.New("invalid frame dimensions")
	// ErrSessionClosed is returned by session operations after shutdown.
	ErrSessionClosed = errors.New("session closed")
)

// SessionError is the error type carried through the pipeline. Severity
// decides whether the session dies, degrades, or drops one frame;
// HTTPStatus is used when the error surfaces through the stats API.
type SessionError struct {
	Severity   Severity               `json:"severity"`
	Component  string                 `json:"component"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Severity, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Severity, e.Component, e.Message)
}

// Unwrap returns the wrapped error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured context to the error.
func (e *SessionError) WithDetails(details map[string]interface{}) *SessionError {
	e.Details = details
	return e
}

// WithStatus overrides the HTTP status used by the stats API.
func (e *SessionError) WithStatus(status int) *SessionError {
	e.HTTPStatus = status
	return e
}

func statusFor(severity Severity) int {
	switch severity {
	case SeverityFatal:
		return http.StatusInternalServerError
	case SeverityDegraded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// New creates a SessionError.
func New(severity Severity, component, message string) *SessionError {
	return &SessionError{
		Severity:   severity,
		Component:  component,
		Message:    message,
		HTTPStatus: statusFor(severity),
	}
}

// Wrap wraps an existing error with severity and component context.
func Wrap(err error, severity Severity, component, message string) *SessionError {
	return &SessionError{
		Severity:   severity,
		Component:  component,
		Message:    message,
		HTTPStatus: statusFor(severity),
		Err:        err,
	}
}

// Fatal creates a session-terminating error.
func Fatal(component, message string) *SessionError {
	return New(SeverityFatal, component, message)
}

// Fatalf creates a session-terminating error with a formatted message.
func Fatalf(component, format string, args ...interface{}) *SessionError {
	return New(SeverityFatal, component, fmt.Sprintf(format, args...))
}

// WrapFatal wraps an error as session-terminating.
func WrapFatal(err error, component, message string) *SessionError {
	return Wrap(err, SeverityFatal, component, message)
}

// Degraded creates a feature-disabling error.
func Degraded(component, message string) *SessionError {
	return New(SeverityDegraded, component, message)
}

// WrapDegraded wraps an error as feature-disabling.
func WrapDegraded(err error, component, message string) *SessionError {
	return Wrap(err, SeverityDegraded, component, message)
}

// FrameError creates a single-frame error.
func FrameError(component, message string) *SessionError {
	return New(SeverityFrame, component, message)
}

// WrapFrame wraps an error as affecting a single frame.
func WrapFrame(err error, component, message string) *SessionError {
	return Wrap(err, SeverityFrame, component, message)
}

// NewNotFoundError creates a not-found error for the stats API.
func NewNotFoundError(resource string) *SessionError {
	return New(SeverityInfo, "api", fmt.Sprintf("%s not found", resource)).
		WithStatus(http.StatusNotFound)
}

// NewValidationError creates a bad-request error for the stats API.
func NewValidationError(message string) *SessionError {
	return New(SeverityInfo, "api", message).WithStatus(http.StatusBadRequest)
}

// NewInternalError creates an internal error for the stats API.
func NewInternalError(message string) *SessionError {
	return Fatal("api", message)
}

// GetSessionError extracts a SessionError from an error chain.
func GetSessionError(err error) (*SessionError, bool) {
	var se *SessionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// SeverityOf reports the severity of an error. Errors outside the
// taxonomy are treated as fatal: an unclassified failure must not be
// silently survived.
func SeverityOf(err error) Severity {
	if se, ok := GetSessionError(err); ok {
		return se.Severity
	}
	return SeverityFatal
}

// IsFatal reports whether the error should terminate the session.
func IsFatal(err error) bool {
	return err != nil && SeverityOf(err) == SeverityFatal
}
