package screen

import (
	"sync"
	"sync/atomic"

	"github.com/zsiec/viewport/internal/config"
	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/export"
	"github.com/zsiec/viewport/internal/framebuffer"
	"github.com/zsiec/viewport/internal/geometry"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/media"
	"github.com/zsiec/viewport/internal/metrics"
	"github.com/zsiec/viewport/internal/processing"
)

// Options wire a Controller's collaborators. Window, Renderer and Bounds
// are required; Processor, Stream and Images are optional stages applied
// to every consumed frame.
type Options struct {
	Window    Window
	Renderer  Renderer
	Bounds    DisplayBounds
	Processor *processing.Processor
	Stream    *export.StreamSink
	Images    *export.ImageSink
}

// Snapshot is a point-in-time view of the presentation state, safe to
// read from any goroutine.
type Snapshot struct {
	HasFrame       bool                 `json:"has_frame"`
	FrameSize      geometry.Size        `json:"frame_size"`
	ContentSize    geometry.Size        `json:"content_size"`
	Mode           Mode                 `json:"-"`
	ModeName       string               `json:"mode"`
	Paused         bool                 `json:"paused"`
	Orientation    geometry.Orientation `json:"-"`
	FramesRendered uint64               `json:"frames_rendered"`
	FramesSkipped  uint64               `json:"frames_skipped"`
}

type commandKind uint8

const (
	cmdSetPaused commandKind = iota
	cmdSwitchFullscreen
	cmdResizeToFit
	cmdResizeToPixelPerfect
	cmdSetOrientation
)

type command struct {
	kind        commandKind
	paused      bool
	orientation geometry.Orientation
}

// Controller is the presentation-side state machine: it consumes frames
// from the hand-off buffer, runs pre-processing and export, tracks the
// window mode and pause state, and drives the renderer. All mutable
// state lives on the event-loop goroutine started by Start; external
// control arrives through the command channel behind SetPaused,
// SwitchFullscreen, ResizeToFit, ResizeToPixelPerfect and
// SetOrientation.
type Controller struct {
	log      logger.Logger
	frameLog *logger.SampledLogger
	window   Window
	renderer Renderer
	display  DisplayBounds

	processor *processing.Processor
	stream    *export.StreamSink
	images    *export.ImageSink

	fb  *framebuffer.FrameBuffer
	fps *FPSCounter

	reqWidth        int
	reqHeight       int
	startFullscreen bool

	// Event-loop-owned state.
	orientation         geometry.Orientation
	hasFrame            bool
	frameSize           geometry.Size
	contentSize         geometry.Size
	mode                Mode
	paused              bool
	resizePending       bool
	windowedContentSize geometry.Size
	current             *media.Frame
	resumeFrame         *media.Frame

	snapshot atomic.Pointer[Snapshot]

	commands chan command
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewController builds a Controller from the display configuration and
// its collaborators.
func NewController(cfg *config.DisplayConfig, opts Options, log logger.Logger) (*Controller, error) {
	if opts.Window == nil || opts.Renderer == nil || opts.Bounds == nil {
		return nil, errors.Fatal("screen", "window, renderer and display bounds are required")
	}
	orientation, ok := geometry.ParseOrientation(cfg.Rotation)
	if !ok {
		return nil, errors.Fatalf("screen", "invalid rotation %d, want 0-3 quarter turns", cfg.Rotation)
	}

	c := &Controller{
		log:             log,
		frameLog:        logger.NewFrameLogger(log),
		window:          opts.Window,
		renderer:        opts.Renderer,
		display:         opts.Bounds,
		processor:       opts.Processor,
		stream:          opts.Stream,
		images:          opts.Images,
		fb:              framebuffer.New(),
		fps:             NewFPSCounter(cfg.FPSCounter, log),
		reqWidth:        cfg.WindowWidth,
		reqHeight:       cfg.WindowHeight,
		startFullscreen: cfg.Fullscreen,
		orientation:     orientation,
		commands:        make(chan command, 16),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	c.publishSnapshot()
	return c, nil
}

// Sink returns the producer-facing frame sink. The decoder side holds
// only this interface.
func (c *Controller) Sink() framebuffer.FrameSink {
	return &controllerSink{c: c}
}

// Start launches the event loop and the fps counter.
func (c *Controller) Start() {
	c.fps.Start()
	go c.run()
}

// Interrupt signals the event loop to stop waiting. Safe to call more
// than once and from any goroutine.
func (c *Controller) Interrupt() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.fps.Interrupt()
}

// Join blocks until the event loop and fps counter have exited. A frame
// being processed when Interrupt fires is finished first.
func (c *Controller) Join() {
	<-c.done
	c.fps.Join()
}

// SetPaused requests a pause state change.
func (c *Controller) SetPaused(paused bool) {
	c.post(command{kind: cmdSetPaused, paused: paused})
}

// SwitchFullscreen requests a fullscreen toggle.
func (c *Controller) SwitchFullscreen() {
	c.post(command{kind: cmdSwitchFullscreen})
}

// ResizeToFit requests cropping the window to the content aspect ratio,
// keeping the window centered on its current position.
func (c *Controller) ResizeToFit() {
	c.post(command{kind: cmdResizeToFit})
}

// ResizeToPixelPerfect requests resizing the window to the exact content
// pixel size.
func (c *Controller) ResizeToPixelPerfect() {
	c.post(command{kind: cmdResizeToPixelPerfect})
}

// SetOrientation requests a display orientation change.
func (c *Controller) SetOrientation(o geometry.Orientation) {
	c.post(command{kind: cmdSetOrientation, orientation: o})
}

// State returns the current presentation snapshot.
func (c *Controller) State() Snapshot {
	if s := c.snapshot.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

func (c *Controller) post(cmd command) {
	select {
	case c.commands <- cmd:
	case <-c.stop:
	}
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case <-c.stop:
			return
		case <-c.fb.Events():
			c.updateFrame()
		case ev := <-c.window.Events():
			c.handleWindowEvent(ev)
		case cmd := <-c.commands:
			c.handleCommand(cmd)
		}
		c.publishSnapshot()
	}
}

func (c *Controller) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdSetPaused:
		c.setPaused(cmd.paused)
	case cmdSwitchFullscreen:
		c.switchFullscreen()
	case cmdResizeToFit:
		c.resizeToFit()
	case cmdResizeToPixelPerfect:
		c.resizeToPixelPerfect()
	case cmdSetOrientation:
		c.setOrientation(cmd.orientation)
	}
}

// updateFrame consumes the pending frame, runs pre-processing and the
// export sinks, and presents the result. While paused the frame is
// retained for resume instead of being presented; processing and export
// still run so a paused session keeps emitting live data.
func (c *Controller) updateFrame() {
	frame, ok := c.fb.Consume()
	if !ok {
		return
	}
	c.frameLog.DebugWithCategory(logger.CategoryFrameArrival, "Frame consumed", map[string]interface{}{
		"width":  frame.Width,
		"height": frame.Height,
		"pts":    frame.PTS,
	})

	processed := c.process(frame)
	c.exportFrame(processed)

	if c.paused {
		c.resumeFrame = processed
		return
	}
	c.present(processed)
}

func (c *Controller) process(frame *media.Frame) *media.Frame {
	if c.processor == nil || !c.processor.Enabled() {
		return frame
	}
	out, err := c.processor.Process(frame)
	if err != nil {
		c.frameLog.WarnWithCategory(logger.CategoryProcessing, "Frame processing failed, continuing with the unprocessed frame", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return out
}

func (c *Controller) exportFrame(frame *media.Frame) {
	if c.stream != nil && !c.stream.Failed() {
		// The sink logs and disables itself on failure.
		_ = c.stream.WriteFrame(frame)
	}
	if c.images != nil {
		if err := c.images.SaveFrame(frame); err != nil {
			c.frameLog.WarnWithCategory(logger.CategoryExportImage, "Image export failed for this frame", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// present sizes the window for the frame and renders it. The frame
// carries its final dimensions here: when the overlay band grew it, the
// grown height drives every size computation.
func (c *Controller) present(frame *media.Frame) {
	size := geometry.NewSize(frame.Width, frame.Height)
	if !c.hasFrame {
		c.showWindow(size)
	} else {
		c.prepareForFrame(size)
	}

	c.current = frame
	c.render()
	c.fps.AddRenderedFrame()
	metrics.IncrementFramesRendered()
}

// showWindow performs the first-frame transition: the window becomes
// visible only once a frame exists, sized from the oriented content.
func (c *Controller) showWindow(frameSize geometry.Size) {
	c.hasFrame = true
	c.frameSize = frameSize
	c.contentSize = frameSize.Orient(c.orientation)
	metrics.SetContentSize(c.contentSize.Width, c.contentSize.Height)

	size := geometry.InitialSize(c.contentSize, c.reqWidth, c.reqHeight, c.usableBounds())
	c.window.SetSize(size)
	c.window.Show()

	c.log.WithFields(map[string]interface{}{
		"content_size": c.contentSize.String(),
		"window_size":  size.String(),
	}).Info("Window shown on first frame")

	if c.startFullscreen {
		c.switchFullscreen()
	}
}

func (c *Controller) prepareForFrame(frameSize geometry.Size) {
	if c.frameSize == frameSize {
		return
	}
	c.log.WithFields(map[string]interface{}{
		"old": c.frameSize.String(),
		"new": frameSize.String(),
	}).Info("Frame size changed")
	c.frameSize = frameSize
	c.setContentSize(frameSize.Orient(c.orientation))
}

// setContentSize resizes the window for the new content immediately in
// normal mode, and defers it otherwise until the window is back to
// normal.
func (c *Controller) setContentSize(content geometry.Size) {
	if c.mode == ModeNormal {
		c.resizeForContent(c.contentSize, content)
	} else if !c.resizePending {
		// Remember the content size the windowed size currently
		// reflects; the deferred resize scales from it.
		c.windowedContentSize = c.contentSize
		c.resizePending = true
	}
	c.contentSize = content
	metrics.SetContentSize(content.Width, content.Height)
}

// resizeForContent scales the window by the old/new content ratio, then
// snaps it to the optimal size within the display bounds.
func (c *Controller) resizeForContent(old, content geometry.Size) {
	if old.IsZero() {
		return
	}
	window := c.window.Size()
	target := geometry.Size{
		Width:  window.Width * content.Width / old.Width,
		Height: window.Height * content.Height / old.Height,
	}
	optimal := geometry.OptimalSize(target, content, c.usableBounds())
	c.window.SetSize(optimal)
	c.log.WithField("size", optimal.String()).Debug("Window resized for new content")
}

func (c *Controller) applyPendingResize() {
	if !c.resizePending {
		return
	}
	c.resizeForContent(c.windowedContentSize, c.contentSize)
	c.resizePending = false
}

func (c *Controller) setPaused(paused bool) {
	if paused == c.paused {
		c.log.Debug("Pause state unchanged")
		return
	}
	c.paused = paused
	metrics.SetPaused(paused)

	if paused {
		c.log.Info("Display paused")
		return
	}
	c.log.Info("Display resumed")
	if c.resumeFrame != nil {
		frame := c.resumeFrame
		c.resumeFrame = nil
		c.present(frame)
	}
}

func (c *Controller) switchFullscreen() {
	enable := c.mode != ModeFullscreen
	if err := c.window.SetFullscreen(enable); err != nil {
		c.log.WithError(err).Warn("Could not switch fullscreen mode")
		return
	}

	if enable {
		c.mode = ModeFullscreen
	} else {
		c.mode = ModeNormal
		c.applyPendingResize()
	}
	c.log.WithField("fullscreen", enable).Debug("Fullscreen switched")
	c.render()
}

// resizeToFit crops the window to the content aspect ratio without
// scaling, keeping the window center in place. Only meaningful in
// normal mode.
func (c *Controller) resizeToFit() {
	if c.mode != ModeNormal || !c.hasFrame {
		return
	}
	window := c.window.Size()
	optimal := geometry.OptimalSize(window, c.contentSize, geometry.Size{})

	pos := c.window.Position()
	pos.X += (window.Width - optimal.Width) / 2
	pos.Y += (window.Height - optimal.Height) / 2
	c.window.SetPosition(pos)
	c.window.SetSize(optimal)
	c.log.WithField("size", optimal.String()).Debug("Window resized to fit content")
}

// resizeToPixelPerfect sizes the window to the exact content pixel
// size, un-maximizing first when needed. No-op in fullscreen and while
// minimized.
func (c *Controller) resizeToPixelPerfect() {
	if c.mode == ModeFullscreen || c.mode == ModeMinimized || !c.hasFrame {
		return
	}
	if c.mode == ModeMaximized {
		c.window.Restore()
		c.mode = ModeNormal
	}
	c.window.SetSize(c.contentSize)
	c.log.WithField("size", c.contentSize.String()).Debug("Window resized to pixel-perfect")
}

func (c *Controller) setOrientation(o geometry.Orientation) {
	if o == c.orientation {
		return
	}
	c.orientation = o
	c.log.WithField("orientation", o.String()).Info("Display orientation changed")
	if c.hasFrame {
		c.setContentSize(c.frameSize.Orient(o))
		c.render()
	}
}

func (c *Controller) handleWindowEvent(ev WindowEvent) {
	metrics.IncrementWindowEvent(ev.Kind.String())
	c.frameLog.DebugWithCategory(logger.CategoryWindowEvents, "Window event", map[string]interface{}{
		"kind": ev.Kind.String(),
	})

	switch ev.Kind {
	case EventSizeChanged, EventExposed:
		c.render()
	case EventMaximized:
		if c.mode == ModeNormal {
			c.mode = ModeMaximized
		}
	case EventMinimized:
		if c.mode != ModeFullscreen {
			c.mode = ModeMinimized
		}
	case EventRestored:
		if c.mode == ModeFullscreen {
			// Some window managers deliver a restore while leaving
			// fullscreen untouched; the windowed state is unaffected.
			return
		}
		c.mode = ModeNormal
		c.applyPendingResize()
		c.render()
	}
}

// render draws the current frame into the centered content rectangle.
// Nothing is drawn before the first frame.
func (c *Controller) render() {
	if c.current == nil {
		return
	}
	drawable := c.window.DrawableSize()
	if drawable.IsZero() {
		return
	}
	rect := geometry.ContentRect(drawable, c.contentSize)
	status, err := c.renderer.Render(c.current, rect, c.orientation)
	if err != nil {
		c.frameLog.WarnWithCategory(logger.CategoryRender, "Render failed for this frame", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if status == RenderPending {
		c.frameLog.DebugWithCategory(logger.CategoryRender, "Renderer not ready, frame deferred", nil)
	}
}

// ConvertWindowToContent maps a window-space point to content-space
// pixel coordinates, first scaling into the drawable surface, then
// undoing the letterbox rectangle and the display orientation. Must be
// called from the event-loop goroutine; returns false before the first
// frame.
func (c *Controller) ConvertWindowToContent(p geometry.Point) (geometry.Point, bool) {
	if !c.hasFrame {
		return geometry.Point{}, false
	}
	window := c.window.Size()
	drawable := c.window.DrawableSize()
	if window.IsZero() || drawable.IsZero() {
		return geometry.Point{}, false
	}
	scaled := geometry.ScaleToDrawable(p, window, drawable)
	rect := geometry.ContentRect(drawable, c.contentSize)
	return geometry.MapDrawableToContent(scaled, c.contentSize, rect, c.orientation), true
}

func (c *Controller) usableBounds() geometry.Size {
	bounds, ok := c.display.UsableBounds()
	if !ok {
		return geometry.Size{}
	}
	return bounds
}

func (c *Controller) publishSnapshot() {
	rendered, _ := c.fps.Totals()
	c.snapshot.Store(&Snapshot{
		HasFrame:       c.hasFrame,
		FrameSize:      c.frameSize,
		ContentSize:    c.contentSize,
		Mode:           c.mode,
		ModeName:       c.mode.String(),
		Paused:         c.paused,
		Orientation:    c.orientation,
		FramesRendered: rendered,
		FramesSkipped:  c.fb.Skipped(),
	})
}

// controllerSink is the producer-facing side of the controller: frames
// pushed here land in the hand-off buffer and wake the event loop.
type controllerSink struct {
	c *Controller
}

// Open validates the stream format. Out-of-range dimensions on the
// first frame end the session.
func (s *controllerSink) Open(format framebuffer.Format) error {
	if err := media.ValidateDimensions(format.Width, format.Height); err != nil {
		return errors.WrapFatal(err, "screen", "unusable stream format")
	}
	s.c.log.WithFields(map[string]interface{}{
		"width":  format.Width,
		"height": format.Height,
	}).Info("Video stream opened")
	return nil
}

// Push hands a frame to the presentation loop, counting a skip when it
// replaces a frame that was never presented.
func (s *controllerSink) Push(frame *media.Frame) error {
	skipped, err := s.c.fb.Push(frame)
	if err != nil {
		return err
	}
	metrics.IncrementFramesPushed()
	if skipped {
		s.c.fps.AddSkippedFrame()
		metrics.AddFramesSkipped(1)
		s.c.frameLog.DebugWithCategory(logger.CategoryFrameSkip, "Frame replaced before presentation", map[string]interface{}{
			"pts": frame.PTS,
		})
	}
	return nil
}

// Close ends the stream; pending frames are dropped.
func (s *controllerSink) Close() {
	s.c.fb.Close()
	s.c.log.Info("Video stream closed")
}
