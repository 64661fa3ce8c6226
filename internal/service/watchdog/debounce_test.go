package watchdog

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
)

// emissionLog records what a debouncer let through.
type emissionLog struct {
	// mu protects events; emissions may come from timer goroutines.
	mu sync.Mutex
	// events are the accepted events in order.
	events []power.Event
}

// add appends one emission.
func (l *emissionLog) add(evt power.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, evt)
}

// kinds returns the emitted kinds in order.
func (l *emissionLog) kinds() []power.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()

	kinds := make([]power.Kind, 0, len(l.events))
	for _, evt := range l.events {
		kinds = append(kinds, evt.Kind)
	}

	return kinds
}

// TestDebouncer_CollapsesRepeats exercises the window-less serial policy:
// runs of identical events shrink to one emission, order is preserved.
func TestDebouncer_CollapsesRepeats(t *testing.T) {
	t.Parallel()

	log := new(emissionLog)
	d := newDebouncer(0, log.add)

	for _, evt := range []power.Event{lost, lost, lost, restored, restored, lost} {
		d.Offer(evt)
	}

	require.Equal(t, []power.Kind{power.KindLost, power.KindRestored, power.KindLost}, log.kinds())
}

// TestDebouncer_DropsUnparseable ensures junk never reaches the arbiter.
func TestDebouncer_DropsUnparseable(t *testing.T) {
	t.Parallel()

	log := new(emissionLog)
	d := newDebouncer(0, log.add)

	d.Offer(power.Event{Kind: power.KindUnparseable, Raw: "noise"})
	d.Offer(power.Event{})

	require.Empty(t, log.kinds())
}

// TestDebouncer_WindowHoldsTransition verifies an edge is believed only
// after it kept its level for the whole window.
func TestDebouncer_WindowHoldsTransition(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		log := new(emissionLog)
		d := newDebouncer(300*time.Millisecond, log.add)

		d.Offer(lost)

		time.Sleep(200 * time.Millisecond)
		require.Empty(t, log.kinds())

		time.Sleep(200 * time.Millisecond)
		require.Equal(t, []power.Kind{power.KindLost}, log.kinds())
	})
}

// TestDebouncer_ReversalInsideWindowIsNoise covers electrical bounce: a
// transition undone within the window reaches nobody.
func TestDebouncer_ReversalInsideWindowIsNoise(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		log := new(emissionLog)
		d := newDebouncer(300*time.Millisecond, log.add)

		// Establish a stable "on power" level first.
		d.Offer(restored)
		time.Sleep(time.Second)
		require.Equal(t, []power.Kind{power.KindRestored}, log.kinds())

		// Bounce: lost for 100ms, then back.
		d.Offer(lost)
		time.Sleep(100 * time.Millisecond)
		d.Offer(restored)

		time.Sleep(time.Second)
		require.Equal(t, []power.Kind{power.KindRestored}, log.kinds())
	})
}

// TestDebouncer_WindowRestartsOnEveryTransition asserts the hold time is
// measured from the latest raw edge, not the first.
func TestDebouncer_WindowRestartsOnEveryTransition(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		log := new(emissionLog)
		d := newDebouncer(300*time.Millisecond, log.add)

		d.Offer(lost)
		time.Sleep(200 * time.Millisecond)

		// Another raw edge 200ms in restarts the window.
		d.Offer(lost)

		time.Sleep(200 * time.Millisecond)
		require.Empty(t, log.kinds())

		time.Sleep(150 * time.Millisecond)
		require.Equal(t, []power.Kind{power.KindLost}, log.kinds())
	})
}

// TestDebouncer_StopSuppressesPendingEmission covers teardown: nothing may
// surface after the watchdog stopped.
func TestDebouncer_StopSuppressesPendingEmission(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		log := new(emissionLog)
		d := newDebouncer(300*time.Millisecond, log.add)

		d.Offer(lost)
		d.Stop()

		time.Sleep(time.Second)
		require.Empty(t, log.kinds())
	})
}
