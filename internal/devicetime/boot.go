// Package devicetime estimates the mirrored device's boot time and
// correlates frame presentation timestamps with the wall clock.
package devicetime

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/zsiec/viewport/internal/logger"
)

// BootClock estimates the wall-clock epoch time, in milliseconds, at
// which the mirrored device powered on.
type BootClock interface {
	BootTime(ctx context.Context) (int64, error)
}

// FixedClock is a BootClock returning a preconfigured value, for rigs
// where the device cannot be queried.
type FixedClock int64

// BootTime returns the fixed boot time.
func (c FixedClock) BootTime(ctx context.Context) (int64, error) {
	return int64(c), nil
}

// ADBClock queries the device over adb: the current device epoch time in
// milliseconds (date +%s%3N) minus the device uptime (/proc/uptime)
// yields the boot time.
type ADBClock struct {
	adbPath string
	serial  string
	timeout time.Duration
	log     logger.Logger

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewADBClock creates a BootClock shelling out to the given adb binary.
// serial may be empty when only one device is attached.
func NewADBClock(adbPath, serial string, timeout time.Duration, log logger.Logger) *ADBClock {
	return &ADBClock{
		adbPath: adbPath,
		serial:  serial,
		timeout: timeout,
		log:     log,
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// BootTime implements BootClock.
func (c *ADBClock) BootTime(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	nowOut, err := c.run(ctx, c.adbPath, c.shellArgs("date", "+%s%3N")...)
	if err != nil {
		return 0, fmt.Errorf("query device time: %w", err)
	}
	nowMS, err := strconv.ParseInt(strings.TrimSpace(string(nowOut)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse device time %q: %w", strings.TrimSpace(string(nowOut)), err)
	}

	upOut, err := c.run(ctx, c.adbPath, c.shellArgs("cat", "/proc/uptime")...)
	if err != nil {
		return 0, fmt.Errorf("query device uptime: %w", err)
	}
	fields := strings.Fields(string(upOut))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty device uptime output")
	}
	uptimeSec, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse device uptime %q: %w", fields[0], err)
	}
	uptimeMS := int64(uptimeSec * 1000)

	bootTime := nowMS - uptimeMS
	c.log.WithFields(map[string]interface{}{
		"device_time_ms": nowMS,
		"uptime_ms":      uptimeMS,
		"boot_time_ms":   bootTime,
	}).Debug("Estimated device boot time")

	return bootTime, nil
}

func (c *ADBClock) shellArgs(args ...string) []string {
	out := make([]string, 0, len(args)+3)
	if c.serial != "" {
		out = append(out, "-s", c.serial)
	}
	out = append(out, "shell")
	return append(out, args...)
}
