package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
	"github.com/oshokin/strompi-watchdog/internal/logger"
)

// eventBuffer sizes the edge event queue. Edges arrive at human timescales
// outside of bounce storms, and bounce storms are discarded downstream.
const eventBuffer = 64

// ErrClosed is returned by Receive after the watcher has been closed.
var ErrClosed = errors.New("gpio watcher is closed")

// line is the subset of the requested GPIO line API the watcher depends on.
// gpiocdev's Line satisfies it; tests substitute a fake.
type line interface {
	Value() (int, error)
	Close() error
}

// requestFunc claims the pin and registers the edge handler. Swapped out in
// tests so no GPIO hardware is needed.
type requestFunc func(chip string, offset int, handler func(gpiocdev.LineEvent)) (line, error)

// Watcher turns edges on the StromPi3 serialless signal pin into power
// events. The pin is held high by a pull-up while power is present and
// pulled low by the module on failure, so falling means lost and rising
// means restored.
type Watcher struct {
	// chip is the GPIO character device name.
	chip string
	// offset is the BCM line offset of the signal pin.
	offset int
	// request claims the line; defaults to gpiocdev.
	request requestFunc

	// events carries mapped edges from the handler to Receive.
	events chan power.Event

	// mu protects line and closed against a Close racing Receive.
	mu sync.Mutex
	// line is the claimed pin, nil before Open and after Close.
	line line
	// closed is set once Close has been called.
	closed bool
	// done unblocks Receive when the watcher closes.
	done chan struct{}
}

// NewWatcher creates a watcher for the given chip and line offset.
func NewWatcher(chip string, offset int) *Watcher {
	return &Watcher{
		chip:    chip,
		offset:  offset,
		request: systemRequest,
		events:  make(chan power.Event, eventBuffer),
		done:    make(chan struct{}),
	}
}

// systemRequest claims the pin as a pulled-up input reporting both edges.
func systemRequest(chip string, offset int, handler func(gpiocdev.LineEvent)) (line, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, err
	}

	return l, nil
}

// Open claims the pin and validates that its level is readable. A pin that
// cannot be read is a configuration error, not a runtime event.
func (w *Watcher) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	if w.line != nil {
		return nil
	}

	l, err := w.request(w.chip, w.offset, w.handleEdge)
	if err != nil {
		return fmt.Errorf("request gpio line %s:%d: %w", w.chip, w.offset, err)
	}

	level, err := l.Value()
	if err != nil {
		_ = l.Close()

		return fmt.Errorf("read gpio line %s:%d: %w", w.chip, w.offset, err)
	}

	w.line = l

	logger.InfoKV(ctx, "GPIO line claimed", "chip", w.chip, "line", w.offset, "level", level)

	// Power may already be down when the watchdog starts; no edge will ever
	// announce that, so the initial low level is reported as a loss.
	if level == 0 {
		w.events <- power.Event{Kind: power.KindLost}
	}

	return nil
}

// Receive blocks until the next edge-mapped power event.
func (w *Watcher) Receive(ctx context.Context) (power.Event, error) {
	select {
	case <-ctx.Done():
		return power.Event{}, ctx.Err()
	case <-w.done:
		return power.Event{}, ErrClosed
	case evt := <-w.events:
		logger.Infof(ctx, "Module reported: %s", evt.Kind)

		return evt, nil
	}
}

// Close releases the pin. Safe to call repeatedly and concurrently with
// Receive.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.done)

	if w.line == nil {
		return nil
	}

	err := w.line.Close()
	w.line = nil

	if err != nil {
		return fmt.Errorf("close gpio line: %w", err)
	}

	return nil
}

// handleEdge runs on the gpiocdev event goroutine. It maps the edge polarity
// and hands off without blocking; if the queue is full the edge belongs to a
// bounce storm the debounce filter would discard anyway.
func (w *Watcher) handleEdge(evt gpiocdev.LineEvent) {
	mapped, ok := eventFromEdge(evt.Type)
	if !ok {
		return
	}

	select {
	case w.events <- mapped:
	default:
	}
}

// eventFromEdge maps an edge polarity to a power event.
func eventFromEdge(t gpiocdev.LineEventType) (power.Event, bool) {
	switch t {
	case gpiocdev.LineEventRisingEdge:
		return power.Event{Kind: power.KindRestored}, true
	case gpiocdev.LineEventFallingEdge:
		return power.Event{Kind: power.KindLost}, true
	default:
		return power.Event{}, false
	}
}
