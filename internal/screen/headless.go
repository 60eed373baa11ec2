package screen

import (
	"sync"

	"github.com/zsiec/viewport/internal/geometry"
	"github.com/zsiec/viewport/internal/media"
)

// HeadlessWindow satisfies Window without a native window: it records
// the geometry it is told and reports it back, with the drawable surface
// equal to the window size. Export-only sessions run against it when no
// display integration is wired in.
type HeadlessWindow struct {
	mu         sync.Mutex
	size       geometry.Size
	position   geometry.Point
	shown      bool
	fullscreen bool
	events     chan WindowEvent
}

// NewHeadlessWindow creates a hidden headless window.
func NewHeadlessWindow() *HeadlessWindow {
	return &HeadlessWindow{events: make(chan WindowEvent, 8)}
}

func (w *HeadlessWindow) Show() {
	w.mu.Lock()
	w.shown = true
	w.mu.Unlock()
}

// Shown reports whether Show has been called.
func (w *HeadlessWindow) Shown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown
}

func (w *HeadlessWindow) Size() geometry.Size {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *HeadlessWindow) SetSize(size geometry.Size) {
	w.mu.Lock()
	w.size = size
	w.mu.Unlock()
}

func (w *HeadlessWindow) DrawableSize() geometry.Size {
	return w.Size()
}

func (w *HeadlessWindow) Position() geometry.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position
}

func (w *HeadlessWindow) SetPosition(p geometry.Point) {
	w.mu.Lock()
	w.position = p
	w.mu.Unlock()
}

func (w *HeadlessWindow) SetFullscreen(enabled bool) error {
	w.mu.Lock()
	w.fullscreen = enabled
	w.mu.Unlock()
	return nil
}

// Fullscreen reports the last state passed to SetFullscreen.
func (w *HeadlessWindow) Fullscreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

// Restore delivers the restored event the way a window manager would.
func (w *HeadlessWindow) Restore() {
	w.Post(WindowEvent{Kind: EventRestored})
}

func (w *HeadlessWindow) Events() <-chan WindowEvent {
	return w.events
}

// Post delivers a window event to the presentation loop. Events are
// dropped when the loop is too far behind; only the latest state
// matters.
func (w *HeadlessWindow) Post(ev WindowEvent) {
	select {
	case w.events <- ev:
	default:
	}
}

// HeadlessRenderer accepts every frame without producing output.
type HeadlessRenderer struct {
	mu       sync.Mutex
	frames   uint64
	lastRect geometry.Rect
}

// NewHeadlessRenderer creates a renderer that discards frames.
func NewHeadlessRenderer() *HeadlessRenderer {
	return &HeadlessRenderer{}
}

func (r *HeadlessRenderer) Render(_ *media.Frame, dst geometry.Rect, _ geometry.Orientation) (RenderStatus, error) {
	r.mu.Lock()
	r.frames++
	r.lastRect = dst
	r.mu.Unlock()
	return RenderOK, nil
}

// Frames returns how many frames were rendered.
func (r *HeadlessRenderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// LastRect returns the destination rectangle of the last render.
func (r *HeadlessRenderer) LastRect() geometry.Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRect
}

// UnboundedDisplay reports no usable display bounds, leaving window
// sizes unconstrained.
type UnboundedDisplay struct{}

func (UnboundedDisplay) UsableBounds() (geometry.Size, bool) {
	return geometry.Size{}, false
}
