package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zsiec/viewport/internal/config"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/registry"
	"github.com/zsiec/viewport/internal/screen"
	"github.com/zsiec/viewport/internal/server"
	"github.com/zsiec/viewport/internal/session"
	"github.com/zsiec/viewport/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logrusLog, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogrusAdapter(logger.WithComponent(logrusLog, "main"))

	log.WithField("version", version.GetInfo().Short()).Info("Starting viewport")
	log.WithField("config_path", configPath).Debug("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The presence registry is built here rather than inside the session
	// so the stats server can observe the same instance. The session
	// takes ownership and closes it on teardown.
	reg := buildRegistry(ctx, cfg, log)

	// No native display integration is wired in; the session runs
	// headless and is observed through the exports and the stats API.
	sess, err := session.New(ctx, cfg, session.Options{
		Window:   screen.NewHeadlessWindow(),
		Renderer: screen.NewHeadlessRenderer(),
		Bounds:   screen.UnboundedDisplay{},
		Registry: reg,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Could not create session")
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
		cancel()
	}()

	// Stats and control server. Losing it never stops mirroring.
	var srvDone chan error
	if cfg.Server.Enabled {
		srv := server.New(cfg, logrusLog, sess, reg)
		srvDone = make(chan error, 1)
		go func() {
			srvDone <- srv.Start(ctx)
		}()
	}

	runErr := sess.Run(ctx)

	// Session teardown flushed the exports and removed the presence
	// record; now drain the server.
	cancel()
	if srvDone != nil {
		if err := <-srvDone; err != nil {
			log.WithError(err).Error("Stats server failed")
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.WithError(runErr).Error("Session failed")
		os.Exit(1)
	}

	log.Info("Shutdown complete")
}

// buildRegistry connects to the session registry when enabled. An
// unreachable registry means running without presence, not failing.
func buildRegistry(ctx context.Context, cfg *config.Config, log logger.Logger) registry.Registry {
	if !cfg.Registry.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Registry.RedisAddr,
		Password: cfg.Registry.RedisPassword,
		DB:       cfg.Registry.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Registry unreachable, continuing without presence")
		_ = client.Close()
		return nil
	}

	log.WithField("addr", cfg.Registry.RedisAddr).Info("Connected to session registry")
	return registry.NewRedisRegistry(client, log, cfg.Registry.TTL)
}
