package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"
	bugst "go.bug.st/serial"

	"github.com/oshokin/strompi-watchdog/internal/config"
	"github.com/oshokin/strompi-watchdog/internal/logger"
)

// watchdogExecutable is the daemon binary whose presence blocks the
// handshake: the serial device is exclusive and reconfiguring the module
// underneath a running watchdog would break both.
const watchdogExecutable = "strompi-watchdog"

// Options controls the serialless configuration handshake.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// SerialPort provides an optional device path override.
	SerialPort string
	// Enable selects whether serialless mode is switched on or off.
	Enable bool
}

// errWatchdogRunning indicates the daemon holds the serial device.
var errWatchdogRunning = errors.New("strompi-watchdog is running, stop it before reconfiguring the module")

// Run performs the one-time configuration handshake that switches the
// StromPi3 between serial and serialless mode.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "strompi-setup")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	device := cfg.SerialPort
	if opts.SerialPort != "" {
		device = opts.SerialPort
	}

	running, err := isWatchdogRunning()
	if err != nil {
		return fmt.Errorf("scan processes: %w", err)
	}

	if running {
		return errWatchdogRunning
	}

	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(device, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", device, err)
	}

	defer func() {
		_ = port.Close()
	}()

	logger.InfoKV(ctx, "Sending configuration handshake", "device", device, "serialless", opts.Enable)

	if err = writeSequence(ctx, port, commandSequence(opts.Enable), contextSleep); err != nil {
		return err
	}

	if opts.Enable {
		logger.Info(ctx, "Serialless mode enabled; set the Serialless jumper to ON and reboot")
	} else {
		logger.Info(ctx, "Serialless mode disabled; set the Serialless jumper to OFF and reboot")
	}

	return nil
}

// isWatchdogRunning scans the process table for a live watchdog daemon.
func isWatchdogRunning() (bool, error) {
	processes, err := ps.Processes()
	if err != nil {
		return false, err
	}

	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if matchesWatchdog(process.Executable()) {
			return true, nil
		}
	}

	return false, nil
}

// matchesWatchdog compares an executable name against the daemon binary,
// tolerating the Windows suffix.
func matchesWatchdog(executable string) bool {
	return executable == watchdogExecutable || strings.TrimSuffix(executable, ".exe") == watchdogExecutable
}
