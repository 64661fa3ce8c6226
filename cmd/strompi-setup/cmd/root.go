package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/strompi-watchdog/internal/config"
	"github.com/oshokin/strompi-watchdog/internal/service/setup"
	"github.com/oshokin/strompi-watchdog/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// serialPort optionally overrides the configured serial device.
	serialPort string

	// rootCmd represents the base command for module configuration.
	rootCmd = &cobra.Command{
		Use:   "strompi-setup",
		Short: "Switch the StromPi3 between serial and serialless mode.",
		Long: `One-time configuration handshake for the StromPi3 module.

"enable" switches the module into serialless mode so power failures are
signalled on the GPIO pin; "disable" switches it back to serial reporting.
After either command, move the Serialless jumper accordingly and reboot.

The handshake refuses to run while a strompi-watchdog daemon is alive,
because both would fight over the serial device.`,
	}

	// enableCmd switches serialless mode on.
	enableCmd = &cobra.Command{
		Use:   "enable",
		Short: "Enable serialless (GPIO) mode.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSetup(true)
		},
	}

	// disableCmd switches serialless mode off.
	disableCmd = &cobra.Command{
		Use:   "disable",
		Short: "Disable serialless mode, back to serial reporting.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSetup(false)
		},
	}
)

// runSetup performs the handshake with graceful interrupt handling.
func runSetup(enable bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	setupOptions := &setup.Options{
		ConfigPath: configPath,
		SerialPort: serialPort,
		Enable:     enable,
	}

	return setup.Run(ctx, setupOptions)
}

// Execute runs the strompi-setup CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serialPort, "port", "p", "", "serial device override")

	rootCmd.AddCommand(enableCmd, disableCmd)
}
