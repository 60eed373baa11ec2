package registry

import (
	"fmt"
	"sync"
	"time"
)

// SessionStatus represents the lifecycle state of a mirroring session.
type SessionStatus string

const (
	StatusStarting SessionStatus = "starting"
	StatusActive   SessionStatus = "active"
	StatusClosed   SessionStatus = "closed"
	StatusError    SessionStatus = "error"
)

// Session is the presence record for one live mirroring session. It is
// plain data: the owning process rebuilds it from its presentation
// snapshot before every registry write.
type Session struct {
	ID            string        `json:"id"`
	DeviceSerial  string        `json:"device_serial"`
	Source        string        `json:"source"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	LastHeartbeat time.Time     `json:"last_heartbeat"`

	// Presentation state
	ContentWidth  int    `json:"content_width"`
	ContentHeight int    `json:"content_height"`
	Mode          string `json:"mode"`
	Paused        bool   `json:"paused"`

	// Statistics
	FramesRendered uint64 `json:"frames_rendered"`
	FramesSkipped  uint64 `json:"frames_skipped"`
}

// SessionStats holds the frame counters pushed on stats updates.
type SessionStats struct {
	FramesRendered uint64
	FramesSkipped  uint64
}

// GenerateSessionID creates a unique session ID with a readable format.
// Example: sess_20240115_143052_001
func GenerateSessionID() string {
	now := time.Now()
	counter := getNextCounter()
	return fmt.Sprintf("sess_%s_%03d", now.Format("20060102_150405"), counter)
}

var (
	sessionCounter uint64
	counterMu      sync.Mutex
)

func getNextCounter() uint64 {
	counterMu.Lock()
	defer counterMu.Unlock()
	sessionCounter++
	if sessionCounter > 999 {
		sessionCounter = 1
	}
	return sessionCounter
}
