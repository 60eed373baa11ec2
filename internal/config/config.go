package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Device     DeviceConfig     `mapstructure:"device"`
	Display    DisplayConfig    `mapstructure:"display"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Export     ExportConfig     `mapstructure:"export"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Source     SourceConfig     `mapstructure:"source"`
}

// ServerConfig configures the stats/debug HTTP server. The server only
// observes the session; it carries no video.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DebugEndpoints  bool          `mapstructure:"debug_endpoints"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or text
	Output     string `mapstructure:"output"` // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DeviceConfig identifies the mirrored device and how to reach its clock.
type DeviceConfig struct {
	Serial       string        `mapstructure:"serial"`
	ADBPath      string        `mapstructure:"adb_path"`
	BootTimeMS   int64         `mapstructure:"boot_time_ms"` // override; 0 = query the device
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// DisplayConfig carries the requested window parameters. Position and size
// of -1/0 mean "derive from content".
type DisplayConfig struct {
	Title        string `mapstructure:"title"`
	WindowX      int    `mapstructure:"window_x"` // -1 = system default
	WindowY      int    `mapstructure:"window_y"`
	WindowWidth  int    `mapstructure:"window_width"` // 0 = from content size
	WindowHeight int    `mapstructure:"window_height"`
	Fullscreen   bool   `mapstructure:"fullscreen"`
	AlwaysOnTop  bool   `mapstructure:"always_on_top"`
	Borderless   bool   `mapstructure:"borderless"`
	FPSCounter   bool   `mapstructure:"fps_counter"`
	Rotation     int    `mapstructure:"rotation"` // quarter turns counter-clockwise, 0-3
}

// ProcessingConfig controls per-frame pre-processing before display/export.
type ProcessingConfig struct {
	Undistort        bool   `mapstructure:"undistort"`
	CalibrationPath  string `mapstructure:"calibration_path"`
	TimestampOverlay bool   `mapstructure:"timestamp_overlay"`
}

type ExportConfig struct {
	Image  ImageExportConfig  `mapstructure:"image"`
	Stream StreamExportConfig `mapstructure:"stream"`
}

// ImageExportConfig configures per-frame still-image saving.
type ImageExportConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Dir          string  `mapstructure:"dir"`
	MaxPerSecond float64 `mapstructure:"max_per_second"` // 0 = unlimited
}

// StreamExportConfig configures the framed raw-video output stream.
type StreamExportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // file or named pipe
}

// RegistryConfig configures the optional session presence registry.
type RegistryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	TTL               time.Duration `mapstructure:"ttl"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// SourceConfig selects where decoded frames are read from.
type SourceConfig struct {
	Path     string `mapstructure:"path"`     // file, named pipe, or "-" for stdin
	Realtime bool   `mapstructure:"realtime"` // pace replayed frames by their recorded timestamps
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("VIEWPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.debug_endpoints", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age", 30)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	// Device defaults
	viper.SetDefault("device.adb_path", "adb")
	viper.SetDefault("device.boot_time_ms", 0)
	viper.SetDefault("device.query_timeout", "5s")

	// Display defaults
	viper.SetDefault("display.title", "viewport")
	viper.SetDefault("display.window_x", -1)
	viper.SetDefault("display.window_y", -1)
	viper.SetDefault("display.window_width", 0)
	viper.SetDefault("display.window_height", 0)
	viper.SetDefault("display.fullscreen", false)
	viper.SetDefault("display.always_on_top", false)
	viper.SetDefault("display.borderless", false)
	viper.SetDefault("display.fps_counter", false)
	viper.SetDefault("display.rotation", 0)

	// Processing defaults
	viper.SetDefault("processing.undistort", false)
	viper.SetDefault("processing.calibration_path", "")
	viper.SetDefault("processing.timestamp_overlay", false)

	// Export defaults
	viper.SetDefault("export.image.enabled", false)
	viper.SetDefault("export.image.dir", "frames")
	viper.SetDefault("export.image.max_per_second", 0)
	viper.SetDefault("export.stream.enabled", false)
	viper.SetDefault("export.stream.path", "")

	// Registry defaults
	viper.SetDefault("registry.enabled", false)
	viper.SetDefault("registry.redis_addr", "localhost:6379")
	viper.SetDefault("registry.redis_db", 0)
	viper.SetDefault("registry.ttl", "30s")
	viper.SetDefault("registry.heartbeat_interval", "10s")

	// Source defaults
	viper.SetDefault("source.path", "-")
	viper.SetDefault("source.realtime", false)
}
