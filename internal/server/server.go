// Package server exposes the session over a small HTTP/1.1 stats and
// control API. The server only observes and steers the session; frames
// never travel through it.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof" // registers pprof handlers on the default mux
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/zsiec/viewport/internal/config"
	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/health"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/registry"
	"github.com/zsiec/viewport/internal/session"
)

const healthCheckInterval = 30 * time.Second

// Control commands are cheap but land on the presentation loop's command
// channel; the limiter keeps a misbehaving client from wedging it.
const (
	controlRatePerSecond = 10
	controlBurst         = 20
)

// Server represents the stats/control HTTP server.
type Server struct {
	cfg          *config.Config
	router       *mux.Router
	httpServer   *http.Server
	logger       *logrus.Logger
	session      *session.Session
	registry     registry.Registry // nil when presence is disabled
	healthMgr    *health.Manager
	errorHandler *errors.ErrorHandler
	controlLimit *rate.Limiter
}

// New creates a server observing the given session. reg may be nil; the
// fleet listing endpoint and registry health check are then omitted.
func New(cfg *config.Config, log *logrus.Logger, sess *session.Session, reg registry.Registry) *Server {
	s := &Server{
		cfg:          cfg,
		router:       mux.NewRouter(),
		logger:       log,
		session:      sess,
		registry:     reg,
		healthMgr:    health.NewManager(log),
		errorHandler: errors.NewErrorHandler(log),
		controlLimit: rate.NewLimiter(rate.Limit(controlRatePerSecond), controlBurst),
	}

	s.registerHealthCheckers()
	s.setupRoutes()

	return s
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go s.healthMgr.StartPeriodicChecks(ctx, healthCheckInterval)

	s.logger.WithField("addr", addr).Info("Starting stats server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("stats server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests up to the configured timeout.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Shutting down stats server")

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("stats server shutdown: %w", err)
	}

	s.logger.Info("Stats server shutdown complete")
	return nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Apply global middleware
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.corsMiddleware)

	// Health endpoints
	healthHandler := health.NewHandler(s.healthMgr)
	s.router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET")
	s.router.HandleFunc("/live", healthHandler.HandleLive).Methods("GET")

	// Version endpoint
	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	// Prometheus scrape endpoint
	if s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, promhttp.Handler()).Methods("GET")
	}

	// API routes. OPTIONS is listed so preflight requests reach the CORS
	// middleware; mux skips middleware entirely on method mismatches.
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/session", s.handleSession).Methods("GET", "OPTIONS")

	// Fleet listing needs the registry
	if s.registry != nil {
		api.HandleFunc("/sessions", s.handleSessions).Methods("GET", "OPTIONS")
	}

	// Control endpoints post commands to the presentation loop
	control := api.PathPrefix("/session").Subrouter()
	control.Use(s.rateLimitMiddleware)
	control.HandleFunc("/pause", s.handlePause).Methods("POST", "OPTIONS")
	control.HandleFunc("/fullscreen", s.handleFullscreen).Methods("POST", "OPTIONS")
	control.HandleFunc("/resize", s.handleResize).Methods("POST", "OPTIONS")
	control.HandleFunc("/orientation", s.handleOrientation).Methods("POST", "OPTIONS")

	// Debug endpoints (only if enabled)
	if s.cfg.Server.DebugEndpoints {
		s.setupDebugEndpoints()
	}

	// 404 handler
	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

// registerHealthCheckers registers the checkers the configuration calls
// for. Export and adb checkers only run when the matching feature is on.
func (s *Server) registerHealthCheckers() {
	s.healthMgr.Register(health.NewSessionChecker(s.session.Controller().State))

	if s.cfg.Export.Image.Enabled {
		s.healthMgr.Register(health.NewExportDirChecker("image_export", s.cfg.Export.Image.Dir))
	}
	if s.cfg.Export.Stream.Enabled {
		s.healthMgr.Register(health.NewExportDirChecker("stream_export", filepath.Dir(s.cfg.Export.Stream.Path)))
	}

	// adb only matters while the boot time comes from the device
	if s.cfg.Device.BootTimeMS == 0 {
		s.healthMgr.Register(health.NewADBChecker(s.cfg.Device.ADBPath, s.cfg.Device.Serial))
	}

	if s.registry != nil {
		s.healthMgr.Register(health.NewRegistryChecker(s.registry))
	}
}

// setupDebugEndpoints mounts pprof and a config summary
func (s *Server) setupDebugEndpoints() {
	s.logger.Info("Enabling debug endpoints")

	// net/http/pprof registers on the default mux; expose it through the
	// router so the handlers are actually reachable.
	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	s.router.HandleFunc("/debug/info", func(w http.ResponseWriter, r *http.Request) {
		info := map[string]interface{}{
			"session_id": s.session.ID(),
			"source": map[string]interface{}{
				"path":     s.cfg.Source.Path,
				"realtime": s.cfg.Source.Realtime,
			},
			"export": map[string]bool{
				"image":  s.cfg.Export.Image.Enabled,
				"stream": s.cfg.Export.Stream.Enabled,
			},
			"registry_enabled": s.registry != nil,
			"debug_enabled":    true,
		}
		_ = s.writeJSON(w, http.StatusOK, info)
	}).Methods("GET")
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}
