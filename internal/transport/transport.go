package transport

import (
	"context"
	"fmt"

	"github.com/oshokin/strompi-watchdog/internal/config"
	"github.com/oshokin/strompi-watchdog/internal/domain/power"
	"github.com/oshokin/strompi-watchdog/internal/transport/gpio"
	"github.com/oshokin/strompi-watchdog/internal/transport/serial"
)

// Transport delivers normalized power events from the StromPi module.
// Implementations own the physical device and never surface raw bytes or
// edge polarities to callers.
type Transport interface {
	// Open claims the underlying device. It may be retried by the caller.
	Open(ctx context.Context) error
	// Receive blocks until the next decoded power event, the context is
	// canceled, or the transport fails. Unparseable input is logged and
	// skipped inside the transport; Receive only ever returns Lost or
	// Restored events.
	Receive(ctx context.Context) (power.Event, error)
	// Close releases the device. It is idempotent and safe to call from a
	// goroutine other than the one blocked in Receive.
	Close() error
}

// New builds the transport selected by the configuration.
func New(cfg *config.Config) (Transport, error) {
	switch cfg.Transport {
	case config.TransportSerial:
		return serial.NewListener(cfg.SerialPort, cfg.BaudRate), nil
	case config.TransportGPIO:
		return gpio.NewWatcher(cfg.GPIOChip, cfg.GPIOLine), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
