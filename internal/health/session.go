package health

import (
	"context"

	apperrors "github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/screen"
)

// SessionChecker reports whether the mirroring session has picked up its
// first frame. It deliberately does not compare frame counters between
// runs: capture only emits frames when the screen changes, so a quiet
// session is a healthy session.
type SessionChecker struct {
	state func() screen.Snapshot
}

// NewSessionChecker creates a checker reading presentation state through
// the given snapshot function.
func NewSessionChecker(state func() screen.Snapshot) *SessionChecker {
	return &SessionChecker{state: state}
}

// Name returns the name of the checker.
func (s *SessionChecker) Name() string {
	return "session"
}

// Check reports degraded until the first frame arrives. Startup and a
// source that has not produced anything yet look the same from here, and
// neither stops the rest of the process from serving.
func (s *SessionChecker) Check(ctx context.Context) error {
	snap := s.state()
	if !snap.HasFrame {
		return apperrors.Degraded("session", "no frame received yet")
	}
	return nil
}
