package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/strompi-watchdog/internal/config"
	"github.com/oshokin/strompi-watchdog/internal/logger"
	"github.com/oshokin/strompi-watchdog/internal/service/watchdog"
	"github.com/oshokin/strompi-watchdog/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// transportKind optionally overrides the configured transport.
	transportKind string
	// debug suppresses the actual shutdown call for testing.
	debug bool

	// rootCmd represents the base command running the watchdog daemon.
	rootCmd = &cobra.Command{
		Use:   "strompi-watchdog",
		Short: "Shut the system down safely when the power supply fails.",
		Long: `Watchdog daemon for a StromPi3 UPS module.

Listens for power failure reports, either as sentinel lines on the module's
serial port or as level changes on the serialless signal pin. A sustained
failure triggers exactly one OS shutdown after the configured delay; if power
returns in time the pending shutdown is cancelled with no side effect.

Intended to run as a systemd service (see strompi-installer).`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Stop cleanly on operator or service-manager request, logging
			// which one asked.
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

			defer signal.Stop(signals)

			go func() {
				sig, ok := <-signals
				if !ok {
					return
				}

				if sig == syscall.SIGINT {
					logger.Info(ctx, "Keyboard interrupt, stopping watchdog")
				} else {
					logger.Info(ctx, "Termination requested, stopping watchdog")
				}

				cancel()
			}()

			watchdogOptions := &watchdog.Options{
				ConfigPath: configPath,
				Transport:  transportKind,
				Debug:      debug,
			}

			return watchdog.Run(ctx, watchdogOptions)
		},
	}
)

// Execute runs the strompi-watchdog CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&transportKind, "transport", "t", "", `transport override ("serial" or "gpio")`)

	// Hidden debug flag to skip shutdown for debugging.
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "skip shutdown for debugging")

	err := rootCmd.Flags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
