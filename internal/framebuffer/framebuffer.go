// Package framebuffer provides the single-slot frame hand-off between the
// decoder context and the presentation loop. The buffer never grows: a
// push while a frame is still pending replaces it and counts the previous
// frame as skipped, so the presentation side always sees the most recent
// frame regardless of how far it lags behind the producer.
package framebuffer

import (
	"sync"

	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/media"
)

// FrameBuffer holds at most one pending frame. Push is called from the
// producer context, Consume from the presentation context; the two meet
// only in the short pointer-swap critical section.
type FrameBuffer struct {
	mu       sync.Mutex
	pending  *media.Frame
	consumed bool
	closed   bool
	skipped  uint64

	// events carries at most one wakeup; multiple pushes between
	// consumes coalesce into a single notification since only the most
	// recent frame matters.
	events chan struct{}
}

// New creates an empty FrameBuffer.
func New() *FrameBuffer {
	return &FrameBuffer{
		consumed: true,
		events:   make(chan struct{}, 1),
	}
}

// Push hands a frame to the presentation side, replacing any frame still
// pending. It reports whether a previous frame was discarded. Pushing to
// a closed buffer returns errors.ErrSinkClosed.
func (fb *FrameBuffer) Push(frame *media.Frame) (bool, error) {
	fb.mu.Lock()
	if fb.closed {
		fb.mu.Unlock()
		return false, errors.ErrSinkClosed
	}
	skipped := !fb.consumed
	fb.pending = frame
	fb.consumed = false
	if skipped {
		fb.skipped++
	}
	fb.mu.Unlock()

	if !skipped {
		// The previous frame was consumed, so no wakeup is in flight
		// for this slot; post one. If the previous frame was skipped
		// the earlier wakeup still stands and now refers to this frame.
		select {
		case fb.events <- struct{}{}:
		default:
		}
	}
	return skipped, nil
}

// Consume takes ownership of the pending frame and clears the slot. When
// nothing is pending it returns (nil, false) and the caller keeps
// whatever frame it already holds.
func (fb *FrameBuffer) Consume() (*media.Frame, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.consumed || fb.pending == nil {
		return nil, false
	}
	frame := fb.pending
	fb.pending = nil
	fb.consumed = true
	return frame, true
}

// Events returns the wakeup channel the presentation loop waits on. At
// least one wakeup is delivered per distinct frame arrival, but pushes
// that replace an unconsumed frame share the pending wakeup.
func (fb *FrameBuffer) Events() <-chan struct{} {
	return fb.events
}

// Skipped returns the number of frames discarded because a newer frame
// arrived before they were consumed.
func (fb *FrameBuffer) Skipped() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.skipped
}

// Close rejects further pushes and drops any pending frame. Safe to call
// more than once.
func (fb *FrameBuffer) Close() {
	fb.mu.Lock()
	fb.closed = true
	fb.pending = nil
	fb.consumed = true
	fb.mu.Unlock()
}
