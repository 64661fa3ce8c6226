package watchdog

import (
	"sync"
	"time"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
)

// debouncer suppresses spurious rapid transitions before they reach the
// arbiter. Two policies stack:
//
//   - runs of identical consecutive events collapse into one emission;
//   - with a non-zero window, a transition must additionally hold its new
//     level for the whole window. Every raw transition restarts the window,
//     and a transition reversed inside it emits nothing.
//
// The serial transport uses window zero because the StromPi firmware
// debounces before printing; the GPIO pin carries raw electrical bounce and
// gets the full window. The filter may drop events but never reorders them.
type debouncer struct {
	// window is the hold time for a transition to be believed.
	window time.Duration
	// emit receives accepted events. Called with d.mu held.
	emit func(power.Event)

	// mu serializes Offer against the settle timer.
	mu sync.Mutex
	// last is the kind of the most recently emitted event.
	last power.Kind
	// pending is the transition waiting out the window.
	pending power.Event
	// timer counts down the window for the pending transition.
	timer *time.Timer
	// generation invalidates settle callbacks from superseded timers.
	generation uint64
}

// newDebouncer creates a filter emitting accepted events through emit.
func newDebouncer(window time.Duration, emit func(power.Event)) *debouncer {
	return &debouncer{
		window: window,
		emit:   emit,
	}
}

// Offer feeds one raw event into the filter. Unparseable events never reach
// this stage; they are dropped defensively regardless.
func (d *debouncer) Offer(evt power.Event) {
	if !evt.Lost() && !evt.Restored() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.window <= 0 {
		if evt.Kind == d.last {
			return
		}

		d.last = evt.Kind
		d.emit(evt)

		return
	}

	d.pending = evt
	d.generation++

	gen := d.generation

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.window, func() {
		d.settle(gen)
	})
}

// settle accepts the pending transition once the window has elapsed without
// a newer raw transition superseding it.
func (d *debouncer) settle(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		return
	}

	d.timer = nil

	// A reversal inside the window lands back on the last emitted level.
	if d.pending.Kind == d.last {
		return
	}

	d.last = d.pending.Kind
	d.emit(d.pending)
}

// Stop cancels any pending window so no emission happens after shutdown.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
