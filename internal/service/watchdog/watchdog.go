package watchdog

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
	"github.com/oshokin/strompi-watchdog/internal/logger"
	"github.com/oshokin/strompi-watchdog/internal/service/shutdown"
	"github.com/oshokin/strompi-watchdog/internal/transport"
)

// Watchdog wires the transport through the debounce filter into the shutdown
// arbiter and runs the listening loop. Events flow one direction and are
// processed in the order the transport observed them.
type Watchdog struct {
	// transport delivers normalized power events.
	transport transport.Transport
	// window is the debounce hold time (zero for serial).
	window time.Duration
	// arbiter owns the pending-shutdown timer.
	arbiter *arbiter
}

// New assembles a watchdog. The invoker is called at most once for the
// lifetime of the process; onState may be nil.
func New(
	tr transport.Transport,
	delay, window time.Duration,
	invoke shutdown.Func,
	onState func(power.ArbiterState),
) *Watchdog {
	return &Watchdog{
		transport: tr,
		window:    window,
		arbiter:   newArbiter(delay, invoke, onState),
	}
}

// Run blocks reading events until the context is canceled or the transport
// fails. On return any pending countdown has been cancelled synchronously,
// so no shutdown can fire after the watchdog has gone away. Run never
// triggers a shutdown as part of its own teardown.
func (w *Watchdog) Run(ctx context.Context) error {
	filter := newDebouncer(w.window, func(evt power.Event) {
		w.arbiter.Handle(ctx, evt)
	})

	defer w.arbiter.Stop()
	defer filter.Stop()

	for {
		evt, err := w.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Listener stopped")

				return nil
			}

			return fmt.Errorf("receive power event: %w", err)
		}

		filter.Offer(evt)
	}
}

// State exposes the arbiter position for health reporting and tests.
func (w *Watchdog) State() power.ArbiterState {
	return w.arbiter.State()
}
