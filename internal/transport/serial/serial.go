package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bugst "go.bug.st/serial"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
	"github.com/oshokin/strompi-watchdog/internal/logger"
)

// readTimeout bounds a single blocking read so a stop request is observed
// promptly instead of hanging on a silent line.
const readTimeout = 500 * time.Millisecond

// readChunkSize is the read buffer size for one port read.
const readChunkSize = 256

// ErrClosed is returned by Receive after the listener has been closed.
var ErrClosed = errors.New("serial listener is closed")

// port is the subset of the serial port API the listener depends on.
// go.bug.st/serial's Port satisfies it; tests substitute a fake.
type port interface {
	Read(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// openPort opens the physical device. Swapped out in tests.
type openPort func(device string, baud int) (port, error)

// Listener reads sentinel lines from the StromPi serial port and turns them
// into power events. The module firmware debounces transitions before
// printing, so the listener performs no debouncing of its own.
type Listener struct {
	// device is the serial device path.
	device string
	// baud is the serial line speed.
	baud int
	// open creates the port; defaults to go.bug.st/serial.
	open openPort

	// mu protects port and closed against a Close racing Receive.
	mu sync.Mutex
	// port is the open device, nil before Open and after Close.
	port port
	// closed is set once Close has been called.
	closed bool

	// carry holds the trailing incomplete line between reads.
	carry []byte
	// pending queues decoded events when one read yields several lines.
	pending []power.Event
}

// NewListener creates a listener for the given device path and baud rate.
func NewListener(device string, baud int) *Listener {
	return &Listener{
		device: device,
		baud:   baud,
		open:   systemOpen,
	}
}

// systemOpen opens the device with the StromPi3 framing (8N1).
func systemOpen(device string, baud int) (port, error) {
	mode := &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	p, err := bugst.Open(device, mode)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Open claims the serial device and configures the read timeout.
func (l *Listener) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	if l.port != nil {
		return nil
	}

	p, err := l.open(l.device, l.baud)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", l.device, err)
	}

	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()

		return fmt.Errorf("set read timeout: %w", err)
	}

	l.port = p

	logger.InfoKV(ctx, "Serial port opened", "device", l.device, "baud_rate", l.baud)

	return nil
}

// Receive blocks until the next power event. Unparseable lines are logged
// and skipped; malformed bytes never abort the listener.
func (l *Listener) Receive(ctx context.Context) (power.Event, error) {
	buf := make([]byte, readChunkSize)

	for {
		if evt, ok := l.nextPending(); ok {
			return evt, nil
		}

		if err := ctx.Err(); err != nil {
			return power.Event{}, err
		}

		p := l.currentPort()
		if p == nil {
			return power.Event{}, ErrClosed
		}

		n, err := p.Read(buf)
		if err != nil {
			// A close from the stop path surfaces as a read error.
			if l.isClosed() || ctx.Err() != nil {
				return power.Event{}, ErrClosed
			}

			return power.Event{}, fmt.Errorf("read serial port: %w", err)
		}

		// n == 0 means the read timeout elapsed with no data.
		if n == 0 {
			continue
		}

		l.consume(ctx, buf[:n])
	}
}

// Close releases the serial device. Safe to call repeatedly and concurrently
// with Receive.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true

	if l.port == nil {
		return nil
	}

	err := l.port.Close()
	l.port = nil

	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}

	return nil
}

// consume folds a chunk of bytes into the line buffer and decodes every
// completed line into the pending queue.
func (l *Listener) consume(ctx context.Context, chunk []byte) {
	l.carry = append(l.carry, chunk...)

	for {
		idx := indexNewline(l.carry)
		if idx < 0 {
			return
		}

		line := l.carry[:idx]
		l.carry = l.carry[idx+1:]

		if len(line) == 0 {
			continue
		}

		evt, validText := decodeLine(line)
		switch {
		case !validText:
			logger.WarnKV(ctx, "Dropping undecodable serial data", "bytes", fmt.Sprintf("%q", line))
		case evt.Kind == power.KindUnparseable:
			logger.InfoKV(ctx, "Ignoring unrecognized serial line", "line", evt.Raw)
		default:
			logger.Infof(ctx, "Module reported: %s", evt.Kind)
			l.pending = append(l.pending, evt)
		}
	}
}

// nextPending pops the oldest queued event, preserving observation order.
func (l *Listener) nextPending() (power.Event, bool) {
	if len(l.pending) == 0 {
		return power.Event{}, false
	}

	evt := l.pending[0]
	l.pending = l.pending[1:]

	return evt, true
}

// currentPort returns the open port under the lock.
func (l *Listener) currentPort() port {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.port
}

// isClosed reports whether Close has been called.
func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed
}

// indexNewline finds the first line terminator. The firmware ends lines with
// "\n" but some revisions emit "\r\n"; the decoder tolerates the stray "\r".
func indexNewline(b []byte) int {
	for i, c := range b {
		if c == '\n' || c == '\r' {
			return i
		}
	}

	return -1
}
