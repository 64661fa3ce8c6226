package systemd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oshokin/strompi-watchdog/internal/logger"
)

const (
	// DefaultUnitDir is where systemd looks for administrator units.
	DefaultUnitDir = "/etc/systemd/system"

	// DefaultBinaryPath is where the watchdog binary is conventionally installed.
	DefaultBinaryPath = "/usr/local/bin/strompi-watchdog"

	// unitFilePermissions matches the mode systemd expects for unit files.
	unitFilePermissions = 0o644
)

// Options controls unit installation.
type Options struct {
	// UnitDir is the target directory for the unit file.
	UnitDir string
	// BinaryPath is the watchdog executable the unit starts.
	BinaryPath string
	// ConfigPath is the settings file passed to the daemon.
	ConfigPath string
	// Enable reloads systemd and enables the unit immediately.
	Enable bool
}

// Run writes the watchdog unit file and optionally enables it.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "strompi-installer")

	if opts.UnitDir == "" {
		opts.UnitDir = DefaultUnitDir
	}

	if opts.BinaryPath == "" {
		opts.BinaryPath = DefaultBinaryPath
	}

	contents, err := renderUnit(opts.BinaryPath, opts.ConfigPath)
	if err != nil {
		return err
	}

	unitPath := filepath.Join(opts.UnitDir, UnitName)

	if err = os.WriteFile(unitPath, contents, unitFilePermissions); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}

	logger.InfoKV(ctx, "Unit file installed", "path", unitPath)

	if !opts.Enable {
		logger.Infof(ctx, "Run `systemctl daemon-reload && systemctl enable --now %s` to activate", UnitName)

		return nil
	}

	if err = systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}

	if err = systemctl(ctx, "enable", "--now", UnitName); err != nil {
		return err
	}

	logger.Infof(ctx, "Unit %s enabled and started", UnitName)

	return nil
}

// systemctl runs one systemctl command, surfacing its output on failure.
func systemctl(ctx context.Context, args ...string) error {
	output, err := exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %v: %s: %w", args, string(output), err)
	}

	return nil
}
