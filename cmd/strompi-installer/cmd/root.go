package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/strompi-watchdog/internal/config"
	"github.com/oshokin/strompi-watchdog/internal/service/systemd"
	"github.com/oshokin/strompi-watchdog/internal/version"
)

var (
	// unitDir is the target directory for the unit file.
	unitDir string
	// binaryPath is the installed watchdog executable the unit starts.
	binaryPath string
	// configPath is the settings file passed to the daemon.
	configPath string
	// enable reloads systemd and starts the unit immediately.
	enable bool

	// rootCmd represents the base command installing the systemd unit.
	rootCmd = &cobra.Command{
		Use:   "strompi-installer",
		Short: "Install the watchdog as a systemd service.",
		Long: `Writes the strompi-watchdog systemd unit file and optionally enables it.

By default only the unit file is written; pass --enable to also run
systemctl daemon-reload and enable --now.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			installerOptions := &systemd.Options{
				UnitDir:    unitDir,
				BinaryPath: binaryPath,
				ConfigPath: configPath,
				Enable:     enable,
			}

			return systemd.Run(ctx, installerOptions)
		},
	}
)

// Execute runs the strompi-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVar(&unitDir, "unit-dir", systemd.DefaultUnitDir, "systemd unit directory")
	rootCmd.Flags().StringVar(&binaryPath, "binary", systemd.DefaultBinaryPath, "installed watchdog executable")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&enable, "enable", false, "daemon-reload and enable --now after installing")
}
