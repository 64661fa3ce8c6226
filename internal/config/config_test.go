package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks transport selection, defaults and rejection of bad values.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config falls back to the serial transport with StromPi defaults.
	cfg := new(Config)

	require.NoError(t, Validate(cfg))
	require.Equal(t, TransportSerial, cfg.Transport)
	require.Equal(t, DefaultSerialPort, cfg.SerialPort)
	require.Equal(t, DefaultBaudRate, cfg.BaudRate)
	require.Equal(t, DefaultShutdownDelay, cfg.ShutdownDelay)
	require.Equal(t, DefaultDebounceWindow, cfg.DebounceWindow)

	// GPIO transport gets its own defaults.
	cfg = &Config{Transport: TransportGPIO}

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultGPIOChip, cfg.GPIOChip)
	require.Equal(t, DefaultGPIOLine, cfg.GPIOLine)

	// Unknown transport.
	cfg = &Config{Transport: "i2c"}
	require.Error(t, Validate(cfg))

	// Negative durations.
	cfg = &Config{ShutdownDelay: -time.Second}
	require.Error(t, Validate(cfg))

	// Nil config.
	require.Error(t, Validate(nil))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		Transport:      TransportGPIO,
		GPIOChip:       "gpiochip4",
		GPIOLine:       17,
		ShutdownDelay:  30 * time.Second,
		DebounceWindow: 50 * time.Millisecond,
		HealthAddress:  "127.0.0.1:8431",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Transport, loaded.Transport)
	require.Equal(t, cfg.GPIOChip, loaded.GPIOChip)
	require.Equal(t, cfg.GPIOLine, loaded.GPIOLine)
	require.Equal(t, cfg.ShutdownDelay, loaded.ShutdownDelay)
	require.Equal(t, cfg.HealthAddress, loaded.HealthAddress)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_MissingFile ensures a helpful error for an absent settings file.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
