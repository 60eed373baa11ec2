// Package screen owns the presentation side of a mirroring session: the
// window and pause state machine, the event loop consuming frames from
// the hand-off buffer, per-frame pre-processing and export orchestration,
// and the geometry decisions for window sizing. Actual pixel output goes
// through the Window and Renderer interfaces; the package ships headless
// implementations for export-only runs.
package screen

import (
	"github.com/zsiec/viewport/internal/geometry"
	"github.com/zsiec/viewport/internal/media"
)

// Mode is the window-manager state of the session window. Exactly one
// mode holds at a time; pausing is a separate axis.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeFullscreen
	ModeMaximized
	ModeMinimized
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeFullscreen:
		return "fullscreen"
	case ModeMaximized:
		return "maximized"
	case ModeMinimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// WindowEventKind identifies a window-manager notification.
type WindowEventKind uint8

const (
	EventSizeChanged WindowEventKind = iota
	EventExposed
	EventMaximized
	EventMinimized
	EventRestored
)

func (k WindowEventKind) String() string {
	switch k {
	case EventSizeChanged:
		return "size_changed"
	case EventExposed:
		return "exposed"
	case EventMaximized:
		return "maximized"
	case EventMinimized:
		return "minimized"
	case EventRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// WindowEvent is a window-manager notification delivered to the
// presentation loop.
type WindowEvent struct {
	Kind WindowEventKind
}

// Window abstracts the native session window. Implementations deliver
// window-manager notifications on Events; the channel stays open for the
// window's lifetime.
type Window interface {
	// Show makes the window visible. The window stays hidden until the
	// first frame has arrived and sized it.
	Show()
	// Size returns the window size in logical (window-space) pixels.
	Size() geometry.Size
	// SetSize resizes the window. Only meaningful in normal mode.
	SetSize(size geometry.Size)
	// DrawableSize returns the size of the drawable surface in physical
	// pixels; on HiDPI displays it exceeds Size.
	DrawableSize() geometry.Size
	// Position returns the window position on the desktop.
	Position() geometry.Point
	// SetPosition moves the window.
	SetPosition(p geometry.Point)
	// SetFullscreen enters or leaves fullscreen. On error the window is
	// unchanged.
	SetFullscreen(enabled bool) error
	// Restore un-maximizes the window. The matching restored event
	// arrives on Events like any window-manager restore.
	Restore()
	// Events delivers window-manager notifications.
	Events() <-chan WindowEvent
}

// RenderStatus reports the outcome of a successful Render call.
type RenderStatus uint8

const (
	// RenderOK means the frame reached the display.
	RenderOK RenderStatus = iota
	// RenderPending means the renderer was not ready; the frame will be
	// picked up on the next render.
	RenderPending
)

// Renderer draws a frame into a region of the window's drawable surface,
// applying the rotation/flip while drawing.
type Renderer interface {
	Render(frame *media.Frame, dst geometry.Rect, o geometry.Orientation) (RenderStatus, error)
}

// DisplayBounds reports the desktop area usable for window sizing,
// already reduced by any desired margins. ok is false when no bound is
// known, in which case window sizes are unconstrained.
type DisplayBounds interface {
	UsableBounds() (bounds geometry.Size, ok bool)
}
