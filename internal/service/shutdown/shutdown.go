package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/oshokin/strompi-watchdog/internal/logger"
)

// windowsShutdownTimeout is the delay in seconds for Windows shutdown command.
const windowsShutdownTimeout = "0"

// ErrUnsupportedOS indicates the current OS is not supported for shutdown.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Func abstracts the shutdown invocation so the watchdog core can be tested
// without halting the build machine.
type Func func(ctx context.Context) error

// System triggers an OS shutdown command using common, built-in tools:
// - Linux/macOS: `shutdown -h now`
// - Windows:     `shutdown.exe -s -f -t 0` (force, no delay)
// The command is started asynchronously and never retried; once the call
// commits, the OS owns the rest.
func System(ctx context.Context) error {
	osName := strings.ToLower(runtime.GOOS)

	switch {
	case strings.Contains(osName, "linux") || strings.Contains(osName, "darwin"):
		return exec.CommandContext(ctx, "shutdown", "-h", "now").Start()
	case strings.Contains(osName, "windows"):
		return exec.CommandContext(ctx, "shutdown.exe", "-s", "-f", "-t", windowsShutdownTimeout).Start()
	default:
		return fmt.Errorf("unsupported operating system: %s: %w", runtime.GOOS, ErrUnsupportedOS)
	}
}

// DryRun logs instead of shutting down. Wired in by the hidden --debug flag.
func DryRun(ctx context.Context) error {
	logger.Warn(ctx, "Debug mode: shutdown suppressed")

	return nil
}
