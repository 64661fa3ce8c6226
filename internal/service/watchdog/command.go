package watchdog

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/oshokin/strompi-watchdog/internal/api/grpc/health"
	"github.com/oshokin/strompi-watchdog/internal/config"
	"github.com/oshokin/strompi-watchdog/internal/domain/power"
	"github.com/oshokin/strompi-watchdog/internal/logger"
	"github.com/oshokin/strompi-watchdog/internal/service/shutdown"
	"github.com/oshokin/strompi-watchdog/internal/transport"
)

// Options controls the watchdog process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Transport provides an optional transport override ("serial" or "gpio").
	Transport string
	// Debug suppresses the actual shutdown call for testing on live machines.
	Debug bool
}

// Run starts the watchdog and blocks until the context is canceled or the
// transport fails irrecoverably.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "strompi-watchdog")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Command line transport override wins over config.
	if opts.Transport != "" {
		cfg.Transport = opts.Transport
		if err = config.Validate(cfg); err != nil {
			return err
		}
	}

	if cfg.LogLevel != "" {
		if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
			logger.SetLevel(level)
		} else {
			logger.Warnf(ctx, "Unknown log level %q, keeping %s", cfg.LogLevel, logger.Level())
		}
	}

	tr, err := transport.New(cfg)
	if err != nil {
		return err
	}

	// The module may not be ready right after boot; keep knocking.
	if err = openWithRetry(ctx, tr, cfg); err != nil {
		return err
	}

	defer func() {
		if closeErr := tr.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Transport close failed", "error", closeErr)
		}
	}()

	invoke := shutdown.System
	if opts.Debug {
		logger.Warn(ctx, "Debug mode enabled: power failures will not shut the system down")

		invoke = shutdown.DryRun
	}

	// Optional gRPC health endpoint tracking the arbiter state.
	var onState func(power.ArbiterState)

	if cfg.HealthAddress != "" {
		onState, err = startHealthServer(ctx, cfg.HealthAddress)
		if err != nil {
			return err
		}
	}

	// Serial sentinel lines are debounced by the module firmware; only the
	// GPIO pin carries raw electrical bounce.
	window := time.Duration(0)
	if cfg.Transport == config.TransportGPIO {
		window = cfg.DebounceWindow
	}

	logger.InfoKV(ctx, "Watchdog started",
		"transport", cfg.Transport,
		"shutdown_delay", cfg.ShutdownDelay.String(),
		"debounce_window", window.String())

	w := New(tr, cfg.ShutdownDelay, window, invoke, onState)

	return w.Run(ctx)
}

// openWithRetry opens the transport with a fixed backoff. A zero retry limit
// means the watchdog keeps trying until the hardware shows up or it is told
// to stop.
func openWithRetry(ctx context.Context, tr transport.Transport, cfg *config.Config) error {
	for attempt := 1; ; attempt++ {
		err := tr.Open(ctx)
		if err == nil {
			return nil
		}

		if cfg.OpenRetryLimit > 0 && attempt >= cfg.OpenRetryLimit {
			return fmt.Errorf("open transport after %d attempts: %w", attempt, err)
		}

		logger.WarnKV(ctx, "Transport open failed, retrying",
			"attempt", attempt,
			"retry_in", cfg.OpenRetryInterval.String(),
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.OpenRetryInterval):
		}
	}
}

// startHealthServer exposes the gRPC health endpoint and returns the state
// observer feeding it.
func startHealthServer(ctx context.Context, address string) (func(power.ArbiterState), error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen health endpoint: %w", err)
	}

	srv := health.NewServer()

	go func() {
		if serveErr := srv.Serve(ctx, lis); serveErr != nil {
			logger.ErrorKV(ctx, "Health endpoint failed", "error", serveErr)
		}
	}()

	logger.InfoKV(ctx, "Health endpoint listening", "address", lis.Addr().String())

	return srv.SetPowerState, nil
}
