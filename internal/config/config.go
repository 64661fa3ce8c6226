package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport selects how the StromPi module reports power events.
const (
	// TransportSerial reads sentinel lines from the module's serial port.
	TransportSerial = "serial"
	// TransportGPIO watches the serialless-mode signal pin for edges.
	TransportGPIO = "gpio"
)

// Config holds the watchdog settings. All values are read once at startup;
// there is no runtime reconfiguration.
type Config struct {
	// Transport selects the event source: "serial" or "gpio".
	Transport string `yaml:"transport"`
	// SerialPort is the device path of the StromPi serial link.
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the serial line speed. The StromPi3 firmware talks at 38400.
	BaudRate int `yaml:"baud_rate"`
	// GPIOChip is the GPIO character device name (e.g. "gpiochip0").
	GPIOChip string `yaml:"gpio_chip"`
	// GPIOLine is the BCM line offset of the power failure pin.
	GPIOLine int `yaml:"gpio_line"`
	// ShutdownDelay is how long a power failure may last before shutdown.
	// It must be shorter than the shutdown timer configured in the StromPi3
	// itself, otherwise the module cuts power before the OS halts.
	ShutdownDelay time.Duration `yaml:"shutdown_delay"`
	// DebounceWindow is how long a GPIO level must hold before it is
	// believed. Serial events are debounced by the module firmware and
	// ignore this value.
	DebounceWindow time.Duration `yaml:"debounce_window"`
	// OpenRetryInterval is the fixed pause between transport open attempts.
	OpenRetryInterval time.Duration `yaml:"open_retry_interval"`
	// OpenRetryLimit caps transport open attempts. Zero means retry forever.
	OpenRetryLimit int `yaml:"open_retry_limit"`
	// HealthAddress optionally exposes a gRPC health endpoint when non-empty.
	HealthAddress string `yaml:"health_addr"`
	// LogLevel is the minimum log level ("debug", "info", "warn", ...).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for watchdog settings.
	DefaultConfigFilename = "strompi-watchdog.yaml"

	// DefaultSerialPort is the Raspberry Pi primary UART device.
	DefaultSerialPort = "/dev/serial0"

	// DefaultBaudRate is the StromPi3 firmware line speed.
	DefaultBaudRate = 38400

	// DefaultGPIOChip is the Raspberry Pi GPIO character device.
	DefaultGPIOChip = "gpiochip0"

	// DefaultGPIOLine is the StromPi3 Rev1.1 serialless jumper pin (BCM 21).
	DefaultGPIOLine = 21

	// DefaultShutdownDelay is how long to wait for power to return.
	DefaultShutdownDelay = 10 * time.Second

	// DefaultDebounceWindow matches the bounce time the StromPi3 vendor
	// scripts use for the signal pin.
	DefaultDebounceWindow = 300 * time.Millisecond

	// DefaultOpenRetryInterval is the pause between transport open attempts.
	DefaultOpenRetryInterval = 2 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownTransport is returned when the transport field is neither "serial" nor "gpio".
	errUnknownTransport = errors.New(`transport must be "serial" or "gpio"`)
	// errNegativeGPIOLine is returned when the GPIO line offset is negative.
	errNegativeGPIOLine = errors.New("gpio line must not be negative")
	// errNegativeDuration is returned when a duration field is negative.
	errNegativeDuration = errors.New("durations must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Transport == "" {
		cfg.Transport = TransportSerial
	}

	switch cfg.Transport {
	case TransportSerial:
		if cfg.SerialPort == "" {
			cfg.SerialPort = DefaultSerialPort
		}

		if cfg.BaudRate <= 0 {
			cfg.BaudRate = DefaultBaudRate
		}
	case TransportGPIO:
		if cfg.GPIOChip == "" {
			cfg.GPIOChip = DefaultGPIOChip
		}

		if cfg.GPIOLine < 0 {
			return errNegativeGPIOLine
		}

		if cfg.GPIOLine == 0 {
			cfg.GPIOLine = DefaultGPIOLine
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownTransport, cfg.Transport)
	}

	if cfg.ShutdownDelay < 0 || cfg.DebounceWindow < 0 || cfg.OpenRetryInterval < 0 {
		return errNegativeDuration
	}

	if cfg.ShutdownDelay == 0 {
		cfg.ShutdownDelay = DefaultShutdownDelay
	}

	if cfg.DebounceWindow == 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}

	if cfg.OpenRetryInterval == 0 {
		cfg.OpenRetryInterval = DefaultOpenRetryInterval
	}

	return nil
}
