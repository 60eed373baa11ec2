// Package registry publishes live session presence to a shared store so
// fleet tooling can see which devices are on screen and how they are
// doing. Records expire on their own when a process dies without
// unregistering.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a session is not in the registry.
var ErrSessionNotFound = errors.New("session not found")

// Registry defines the interface for session presence operations.
type Registry interface {
	// Register adds a new session to the registry. Re-registering an
	// existing session refreshes it, preserving its creation time.
	Register(ctx context.Context, session *Session) error

	// Unregister removes a session from the registry.
	Unregister(ctx context.Context, sessionID string) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// List returns all live sessions.
	List(ctx context.Context) ([]*Session, error)

	// UpdateHeartbeat refreshes the heartbeat timestamp for a session.
	UpdateHeartbeat(ctx context.Context, sessionID string) error

	// UpdateStatus updates the lifecycle status of a session.
	UpdateStatus(ctx context.Context, sessionID string, status SessionStatus) error

	// UpdateStats updates the frame counters for a session.
	UpdateStats(ctx context.Context, sessionID string, stats *SessionStats) error

	// Update replaces an existing session record. Fails when the
	// session is not registered.
	Update(ctx context.Context, session *Session) error

	// Close closes any resources held by the registry.
	Close() error
}

// MockRegistry is an in-memory implementation of Registry for testing.
type MockRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewMockRegistry creates a new mock registry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		sessions: make(map[string]*Session),
	}
}

func (m *MockRegistry) Register(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry is closed")
	}

	// Mirror the Redis semantics: re-registering keeps the original
	// creation time and counts as a heartbeat.
	if existing, ok := m.sessions[session.ID]; ok {
		session.CreatedAt = existing.CreatedAt
	} else {
		session.CreatedAt = time.Now()
	}
	session.LastHeartbeat = time.Now()

	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *MockRegistry) Unregister(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry is closed")
	}

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	delete(m.sessions, sessionID)
	return nil
}

func (m *MockRegistry) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("registry is closed")
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	return copySession(session), nil
}

func (m *MockRegistry) List(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("registry is closed")
	}

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, copySession(session))
	}
	return sessions, nil
}

func (m *MockRegistry) UpdateHeartbeat(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry is closed")
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	session.LastHeartbeat = time.Now()
	return nil
}

func (m *MockRegistry) UpdateStatus(ctx context.Context, sessionID string, status SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry is closed")
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	session.Status = status
	session.LastHeartbeat = time.Now()
	return nil
}

func (m *MockRegistry) UpdateStats(ctx context.Context, sessionID string, stats *SessionStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry is closed")
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	if stats != nil {
		session.FramesRendered = stats.FramesRendered
		session.FramesSkipped = stats.FramesSkipped
	}
	session.LastHeartbeat = time.Now()
	return nil
}

func (m *MockRegistry) Update(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry is closed")
	}

	if _, ok := m.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s: %w", session.ID, ErrSessionNotFound)
	}

	session.LastHeartbeat = time.Now()
	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *MockRegistry) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry already closed")
	}

	m.closed = true
	m.sessions = nil
	return nil
}

// copySession detaches a record from the caller so later mutations on
// either side stay invisible to the other.
func copySession(s *Session) *Session {
	cp := *s
	return &cp
}

// Ensure MockRegistry implements Registry interface
var _ Registry = (*MockRegistry)(nil)
