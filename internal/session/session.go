package session

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zsiec/viewport/internal/config"
	"github.com/zsiec/viewport/internal/devicetime"
	apperrors "github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/export"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/processing"
	"github.com/zsiec/viewport/internal/registry"
	"github.com/zsiec/viewport/internal/screen"
)

// Options supply the platform collaborators a Session cannot build
// itself, plus overrides for the pieces normally derived from the
// configuration.
type Options struct {
	Window   screen.Window
	Renderer screen.Renderer
	Bounds   screen.DisplayBounds

	// Source overrides the frame source built from the source config.
	Source Source
	// Registry overrides the presence registry built from the registry
	// config. The session takes ownership and closes it.
	Registry registry.Registry
	// Clock overrides the device boot clock.
	Clock devicetime.BootClock
}

// Session owns one mirroring run from first frame to teardown: it wires
// the frame source to the presentation controller, attaches the export
// sinks, and keeps the presence registry current while running.
type Session struct {
	id  string
	cfg *config.Config
	log logger.Logger

	correlator *devicetime.Correlator
	controller *screen.Controller
	source     Source
	reg        registry.Registry

	input      io.ReadCloser // owned when opened from the source path
	streamFile io.WriteCloser
	stream     *export.StreamSink
	images     *export.ImageSink

	hb sync.WaitGroup
}

// New builds a session from the configuration. The context bounds the
// device boot time query only; Run takes its own.
func New(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*Session, error) {
	id := registry.GenerateSessionID()
	log = log.WithField("session_id", id)

	s := &Session{id: id, cfg: cfg, log: log}

	bootMS := resolveBootTime(ctx, cfg, opts.Clock, log)
	s.correlator = devicetime.NewCorrelator(bootMS)

	processor := processing.NewProcessor(&cfg.Processing, s.correlator, log)
	s.openExports()

	controller, err := screen.NewController(&cfg.Display, screen.Options{
		Window:    opts.Window,
		Renderer:  opts.Renderer,
		Bounds:    opts.Bounds,
		Processor: processor,
		Stream:    s.stream,
		Images:    s.images,
	}, log)
	if err != nil {
		s.closeExports()
		return nil, err
	}
	s.controller = controller

	if opts.Source != nil {
		s.source = opts.Source
	} else {
		input, owned, err := openInput(cfg.Source.Path)
		if err != nil {
			s.closeExports()
			return nil, apperrors.WrapFatal(err, "session", "cannot open frame source")
		}
		if owned {
			s.input = input
		}
		s.source = NewStreamSource(input, cfg.Source.Realtime, log)
	}

	s.reg = opts.Registry
	if s.reg == nil && cfg.Registry.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Registry.RedisAddr,
			Password: cfg.Registry.RedisPassword,
			DB:       cfg.Registry.RedisDB,
		})
		s.reg = registry.NewRedisRegistry(client, log, cfg.Registry.TTL)
	}

	return s, nil
}

// ID returns the generated session identifier.
func (s *Session) ID() string {
	return s.id
}

// Controller exposes the presentation controller for interactive and
// HTTP control surfaces.
func (s *Session) Controller() *screen.Controller {
	return s.controller
}

// Info is the session description served by the HTTP API.
type Info struct {
	ID         string          `json:"id"`
	Device     string          `json:"device,omitempty"`
	Source     string          `json:"source"`
	BootTimeMS int64           `json:"boot_time_ms"`
	State      screen.Snapshot `json:"state"`
}

// Info returns a point-in-time description of the session. Safe to call
// from any goroutine.
func (s *Session) Info() Info {
	return Info{
		ID:         s.id,
		Device:     s.cfg.Device.Serial,
		Source:     s.cfg.Source.Path,
		BootTimeMS: s.correlator.BootTimeMS(),
		State:      s.controller.State(),
	}
}

// Run drives the session until the stream ends or ctx is canceled, then
// tears everything down: presentation loop, export sinks, input handle,
// presence record. It blocks for the whole session.
func (s *Session) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.controller.Start()
	s.registerPresence(runCtx)

	s.log.WithFields(map[string]interface{}{
		"source":   s.cfg.Source.Path,
		"realtime": s.cfg.Source.Realtime,
	}).Info("Session started")

	srcDone := make(chan error, 1)
	go func() {
		srcDone <- s.source.Run(runCtx, s.controller.Sink())
	}()

	runErr := <-srcDone

	cancel()
	s.hb.Wait()

	s.controller.Interrupt()
	s.controller.Join()

	s.closeExports()
	s.closeInput()
	s.unregister()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		s.log.WithError(runErr).Error("Session ended with error")
		return runErr
	}
	s.log.Info("Session ended")
	return nil
}

// resolveBootTime prefers the configured override, then asks the device,
// and finally degrades to zero, which leaves overlay and export
// timestamps stream-relative.
func resolveBootTime(ctx context.Context, cfg *config.Config, clock devicetime.BootClock, log logger.Logger) int64 {
	if cfg.Device.BootTimeMS != 0 {
		return cfg.Device.BootTimeMS
	}
	if clock == nil {
		clock = devicetime.NewADBClock(cfg.Device.ADBPath, cfg.Device.Serial, cfg.Device.QueryTimeout, log)
	}
	bootMS, err := clock.BootTime(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not query device boot time, timestamps will be stream-relative")
		return 0
	}
	log.WithField("boot_time_ms", bootMS).Info("Device boot time resolved")
	return bootMS
}

// openExports attaches the configured export sinks. A sink that cannot
// be opened is skipped with a warning; exports never block a session.
func (s *Session) openExports() {
	cfg := s.cfg.Export
	if cfg.Stream.Enabled {
		f, err := os.Create(cfg.Stream.Path)
		if err != nil {
			s.log.WithError(err).Warn("Stream export disabled, cannot open output")
		} else {
			s.streamFile = f
			s.stream = export.NewStreamSink(f, s.correlator, s.log)
			s.log.WithField("path", cfg.Stream.Path).Info("Stream export enabled")
		}
	}
	if cfg.Image.Enabled {
		sink, err := export.NewImageSink(cfg.Image.Dir, s.correlator, cfg.Image.MaxPerSecond, s.log)
		if err != nil {
			s.log.WithError(err).Warn("Image export disabled, cannot create directory")
		} else {
			s.images = sink
			s.log.WithField("dir", sink.Dir()).Info("Image export enabled")
		}
	}
}

func (s *Session) closeExports() {
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.log.WithError(err).Warn("Stream export close failed")
		}
		s.stream = nil
	}
	if s.streamFile != nil {
		if err := s.streamFile.Close(); err != nil {
			s.log.WithError(err).Warn("Stream export file close failed")
		}
		s.streamFile = nil
	}
}

func (s *Session) closeInput() {
	if s.input != nil {
		// The source may have closed it already to unblock a read.
		_ = s.input.Close()
		s.input = nil
	}
}

// registerPresence publishes the session record and starts the
// heartbeat loop. Registry trouble never stops a session.
func (s *Session) registerPresence(ctx context.Context) {
	if s.reg == nil {
		return
	}
	if err := s.reg.Register(ctx, s.record()); err != nil {
		s.log.WithError(err).Warn("Presence registration failed, continuing without registry")
		_ = s.reg.Close()
		s.reg = nil
		return
	}
	s.hb.Add(1)
	go func() {
		defer s.hb.Done()
		s.heartbeatLoop(ctx)
	}()
}

func (s *Session) heartbeatLoop(ctx context.Context) {
	interval := s.cfg.Registry.HeartbeatInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.reg.Update(ctx, s.record()); err != nil {
				s.log.WithError(err).Warn("Presence heartbeat failed")
			}
		}
	}
}

func (s *Session) unregister() {
	if s.reg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.reg.Unregister(ctx, s.id); err != nil {
		s.log.WithError(err).Warn("Presence unregister failed")
	}
	if err := s.reg.Close(); err != nil {
		s.log.WithError(err).Warn("Registry close failed")
	}
	s.reg = nil
}

// record builds the current presence record from the presentation
// snapshot.
func (s *Session) record() *registry.Session {
	snap := s.controller.State()
	status := registry.StatusStarting
	if snap.HasFrame {
		status = registry.StatusActive
	}
	return &registry.Session{
		ID:             s.id,
		DeviceSerial:   s.cfg.Device.Serial,
		Source:         s.cfg.Source.Path,
		Status:         status,
		ContentWidth:   snap.ContentSize.Width,
		ContentHeight:  snap.ContentSize.Height,
		Mode:           snap.ModeName,
		Paused:         snap.Paused,
		FramesRendered: snap.FramesRendered,
		FramesSkipped:  snap.FramesSkipped,
	}
}

// openInput opens the configured frame source. The bool reports whether
// the caller owns the handle; stdin stays with the process.
func openInput(path string) (io.ReadCloser, bool, error) {
	if path == "" || path == "-" {
		return os.Stdin, false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}
