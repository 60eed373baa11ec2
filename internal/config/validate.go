package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device config: %w", err)
	}

	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("display config: %w", err)
	}

	if err := c.Processing.Validate(); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry config: %w", err)
	}

	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		// File output, rotation limits must make sense
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}

func (d *DeviceConfig) Validate() error {
	if d.ADBPath == "" {
		return fmt.Errorf("adb_path cannot be empty")
	}

	if d.BootTimeMS < 0 {
		return fmt.Errorf("boot_time_ms cannot be negative")
	}

	if d.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}

	return nil
}

func (d *DisplayConfig) Validate() error {
	if d.WindowWidth < 0 || d.WindowHeight < 0 {
		return fmt.Errorf("window size cannot be negative")
	}

	if (d.WindowWidth == 0) != (d.WindowHeight == 0) {
		return fmt.Errorf("window_width and window_height must be set together")
	}

	if d.WindowWidth > 0xFFFF || d.WindowHeight > 0xFFFF {
		return fmt.Errorf("window size exceeds 65535")
	}

	if d.Rotation < 0 || d.Rotation > 3 {
		return fmt.Errorf("rotation must be 0, 1, 2 or 3: %d", d.Rotation)
	}

	return nil
}

func (p *ProcessingConfig) Validate() error {
	if p.Undistort && p.CalibrationPath == "" {
		return fmt.Errorf("calibration_path is required when undistort is enabled")
	}

	return nil
}

func (e *ExportConfig) Validate() error {
	if e.Image.Enabled {
		if e.Image.Dir == "" {
			return fmt.Errorf("image export dir cannot be empty")
		}
		if e.Image.MaxPerSecond < 0 {
			return fmt.Errorf("image max_per_second cannot be negative")
		}
	}

	if e.Stream.Enabled {
		if e.Stream.Path == "" {
			return fmt.Errorf("stream export path cannot be empty")
		}
	}

	return nil
}

func (r *RegistryConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	if r.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required when registry is enabled")
	}

	if r.RedisDB < 0 {
		return fmt.Errorf("invalid redis database number: %d", r.RedisDB)
	}

	if r.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	if r.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}

	if r.HeartbeatInterval >= r.TTL {
		return fmt.Errorf("heartbeat_interval must be shorter than ttl")
	}

	return nil
}

func (s *SourceConfig) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("source path cannot be empty")
	}

	return nil
}
