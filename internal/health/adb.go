package health

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/zsiec/viewport/internal/errors"
)

// ADBChecker checks adb availability and, when a serial is configured,
// that the device is attached and authorized. adb only serves the device
// boot-time query; without it timestamps fall back to stream-relative,
// so every failure here is degraded rather than down.
type ADBChecker struct {
	binaryPath string
	serial     string
	timeout    time.Duration
}

// NewADBChecker creates a new adb health checker. serial may be empty
// when only one device is attached.
func NewADBChecker(binaryPath, serial string) *ADBChecker {
	if binaryPath == "" {
		if path, err := exec.LookPath("adb"); err == nil {
			binaryPath = path
		}
	}

	return &ADBChecker{
		binaryPath: binaryPath,
		serial:     serial,
		timeout:    5 * time.Second,
	}
}

// Name returns the name of the checker.
func (a *ADBChecker) Name() string {
	return "adb"
}

// Check performs the adb health check.
func (a *ADBChecker) Check(ctx context.Context) error {
	if err := a.checkBinary(ctx); err != nil {
		return apperrors.WrapDegraded(err, "adb", "adb binary check failed")
	}

	if a.serial != "" {
		if err := a.checkDevice(ctx); err != nil {
			return apperrors.WrapDegraded(err, "adb", "device check failed")
		}
	}

	return nil
}

// checkBinary verifies the adb binary is present and answers version.
func (a *ADBChecker) checkBinary(ctx context.Context) error {
	if a.binaryPath == "" {
		return fmt.Errorf("adb binary not found in PATH")
	}

	if !filepath.IsAbs(a.binaryPath) {
		if _, err := exec.LookPath(a.binaryPath); err != nil {
			return fmt.Errorf("adb binary not executable: %w", err)
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, a.binaryPath, "version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("adb version check failed: %w", err)
	}

	if !strings.Contains(string(output), "Android Debug Bridge") {
		return fmt.Errorf("unexpected adb version output")
	}

	return nil
}

// checkDevice verifies the configured device reports state "device".
// Other states (offline, unauthorized) mean the boot-time query will
// fail even though adb itself works.
func (a *ADBChecker) checkDevice(ctx context.Context) error {
	cmdCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, a.binaryPath, "-s", a.serial, "get-state")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("device %s not reachable: %w", a.serial, err)
	}

	state := strings.TrimSpace(string(output))
	if state != "device" {
		return fmt.Errorf("device %s in state %q", a.serial, state)
	}

	return nil
}
