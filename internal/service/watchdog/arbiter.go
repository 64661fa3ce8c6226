package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
	"github.com/oshokin/strompi-watchdog/internal/logger"
	"github.com/oshokin/strompi-watchdog/internal/service/shutdown"
)

// arbiter owns the pending-shutdown timer. All transitions, the timer expiry
// included, serialize through one mutex: whoever holds it decides
// authoritatively whether the shutdown fires or is cancelled, so the invoker
// is called at most once no matter how events and expiry interleave.
type arbiter struct {
	// delay is how long a power failure may last before shutdown.
	delay time.Duration
	// invoke performs the OS shutdown.
	invoke shutdown.Func
	// onState, when set, observes every state transition (health endpoint).
	onState func(power.ArbiterState)

	// mu guards everything below.
	mu sync.Mutex
	// state is the current state machine position.
	state power.ArbiterState
	// timer is the active countdown, nil while idle.
	timer *time.Timer
	// generation invalidates expiry callbacks from cancelled timers.
	generation uint64
	// fired latches once the invoker has been called; the call is
	// irrevocable, so no later event may undo or repeat it.
	fired bool
}

// newArbiter creates an idle arbiter.
func newArbiter(delay time.Duration, invoke shutdown.Func, onState func(power.ArbiterState)) *arbiter {
	return &arbiter{
		delay:   delay,
		invoke:  invoke,
		onState: onState,
		state:   power.StateIdle,
	}
}

// Handle processes one debounced event.
func (a *arbiter) Handle(ctx context.Context, evt power.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case evt.Lost():
		a.handleLost(ctx)
	case evt.Restored():
		a.handleRestored(ctx)
	}
}

// handleLost starts the countdown unless one is already running.
func (a *arbiter) handleLost(ctx context.Context) {
	if a.state == power.StateAwaitingShutdown {
		// The timer keeps its original deadline; a repeated loss must not
		// postpone the shutdown.
		logger.Debug(ctx, "Power still lost, countdown unchanged")

		return
	}

	a.state = power.StateAwaitingShutdown
	a.generation++

	gen := a.generation
	a.timer = time.AfterFunc(a.delay, func() {
		a.expire(ctx, gen)
	})

	logger.Infof(ctx, "Power failure detected, shutting down in %s unless power returns", a.delay)
	a.notify()
}

// handleRestored cancels the countdown if one is pending.
func (a *arbiter) handleRestored(ctx context.Context) {
	if a.fired {
		logger.Warn(ctx, "Power back, but shutdown was already initiated")

		return
	}

	if a.state == power.StateIdle {
		logger.Info(ctx, "Power back detected, already on power")

		return
	}

	a.cancelTimerLocked()
	a.state = power.StateIdle

	logger.Info(ctx, "Power back detected, shutdown aborted")
	a.notify()
}

// expire fires the shutdown once the countdown elapses. Cancellation wins
// only if it was observed before this callback acquired the lock; after the
// invoker call commits, nothing suppresses it.
func (a *arbiter) expire(ctx context.Context, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation || a.state != power.StateAwaitingShutdown || a.fired {
		return
	}

	a.fired = true
	a.timer = nil

	logger.Warn(ctx, "Power failure persisted, shutting down the system")

	if err := a.invoke(ctx); err != nil {
		logger.ErrorKV(ctx, "Shutdown invocation failed", "error", err)
	}
}

// Stop cancels any pending countdown. Called on the watchdog's own teardown,
// which must never leave a stray shutdown scheduled.
func (a *arbiter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelTimerLocked()

	if a.state == power.StateAwaitingShutdown && !a.fired {
		a.state = power.StateIdle
		a.notify()
	}
}

// State returns the current state machine position.
func (a *arbiter) State() power.ArbiterState {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

// cancelTimerLocked stops the active timer and invalidates its callback.
// Callers must hold a.mu.
func (a *arbiter) cancelTimerLocked() {
	a.generation++

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// notify reports the state to the observer. Callers must hold a.mu.
func (a *arbiter) notify() {
	if a.onState != nil {
		a.onState(a.state)
	}
}
