package watchdog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
)

// shutdownRecorder counts invoker calls.
type shutdownRecorder struct {
	// calls counts how often the invoker was called.
	calls atomic.Int32
}

// invoke records one shutdown call.
func (r *shutdownRecorder) invoke(context.Context) error {
	r.calls.Add(1)

	return nil
}

var (
	lost     = power.Event{Kind: power.KindLost}
	restored = power.Event{Kind: power.KindRestored}
)

// TestArbiter_RestoredBeforeExpiryCancels covers the happy recovery path:
// power returns before the deadline, so nothing fires.
func TestArbiter_RestoredBeforeExpiryCancels(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(10*time.Second, rec.invoke, nil)

		a.Handle(t.Context(), lost)
		require.Equal(t, power.StateAwaitingShutdown, a.State())

		time.Sleep(5 * time.Second)
		a.Handle(t.Context(), restored)
		require.Equal(t, power.StateIdle, a.State())

		// The cancelled countdown must not fire, even well past the deadline.
		time.Sleep(time.Minute)
		require.Equal(t, int32(0), rec.calls.Load())
	})
}

// TestArbiter_SustainedLossFiresOnce verifies exactly one invocation at the
// configured deadline.
func TestArbiter_SustainedLossFiresOnce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(10*time.Second, rec.invoke, nil)

		a.Handle(t.Context(), lost)

		time.Sleep(9 * time.Second)
		require.Equal(t, int32(0), rec.calls.Load())

		time.Sleep(2 * time.Second)
		require.Equal(t, int32(1), rec.calls.Load())

		// The process is expected to die; the arbiter stays put.
		require.Equal(t, power.StateAwaitingShutdown, a.State())

		time.Sleep(time.Minute)
		require.Equal(t, int32(1), rec.calls.Load())
	})
}

// TestArbiter_DuplicateLostKeepsDeadline asserts a repeated loss neither
// restarts the countdown nor schedules a second one.
func TestArbiter_DuplicateLostKeepsDeadline(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(10*time.Second, rec.invoke, nil)

		a.Handle(t.Context(), lost)
		time.Sleep(3 * time.Second)
		a.Handle(t.Context(), lost)

		// Still due at t=10, not t=13.
		time.Sleep(6 * time.Second)
		require.Equal(t, int32(0), rec.calls.Load())

		time.Sleep(2 * time.Second)
		require.Equal(t, int32(1), rec.calls.Load())

		time.Sleep(10 * time.Second)
		require.Equal(t, int32(1), rec.calls.Load())
	})
}

// TestArbiter_RestoredAfterFireIsIrrevocable ensures a late power-back cannot
// undo a committed shutdown call.
func TestArbiter_RestoredAfterFireIsIrrevocable(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(time.Second, rec.invoke, nil)

		a.Handle(t.Context(), lost)
		time.Sleep(2 * time.Second)
		require.Equal(t, int32(1), rec.calls.Load())

		a.Handle(t.Context(), restored)
		require.Equal(t, power.StateAwaitingShutdown, a.State())
		require.Equal(t, int32(1), rec.calls.Load())
	})
}

// TestArbiter_RestoredWhileIdleIsNoOp covers the "already on power" row.
func TestArbiter_RestoredWhileIdleIsNoOp(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(time.Second, rec.invoke, nil)

		a.Handle(t.Context(), restored)
		require.Equal(t, power.StateIdle, a.State())

		time.Sleep(time.Minute)
		require.Equal(t, int32(0), rec.calls.Load())
	})
}

// TestArbiter_StopCancelsPendingCountdown asserts the teardown contract: a
// stopped watchdog leaves no shutdown scheduled.
func TestArbiter_StopCancelsPendingCountdown(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(time.Second, rec.invoke, nil)

		a.Handle(t.Context(), lost)
		a.Stop()
		require.Equal(t, power.StateIdle, a.State())

		time.Sleep(time.Minute)
		require.Equal(t, int32(0), rec.calls.Load())
	})
}

// TestArbiter_FreshCountdownAfterCancel ensures a loss following a recovery
// gets its own full deadline and exactly one invocation.
func TestArbiter_FreshCountdownAfterCancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(shutdownRecorder)
		a := newArbiter(10*time.Second, rec.invoke, nil)

		a.Handle(t.Context(), lost)
		time.Sleep(5 * time.Second)
		a.Handle(t.Context(), restored)
		a.Handle(t.Context(), lost)

		// New deadline is t=15, not t=10.
		time.Sleep(9 * time.Second)
		require.Equal(t, int32(0), rec.calls.Load())

		time.Sleep(2 * time.Second)
		require.Equal(t, int32(1), rec.calls.Load())
	})
}

// TestArbiter_NotifiesStateObserver checks the health endpoint feed.
func TestArbiter_NotifiesStateObserver(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			mu     sync.Mutex
			states []power.ArbiterState
		)

		rec := new(shutdownRecorder)
		a := newArbiter(time.Second, rec.invoke, func(s power.ArbiterState) {
			mu.Lock()
			defer mu.Unlock()

			states = append(states, s)
		})

		a.Handle(t.Context(), lost)
		a.Handle(t.Context(), restored)

		mu.Lock()
		defer mu.Unlock()

		require.Equal(t, []power.ArbiterState{power.StateAwaitingShutdown, power.StateIdle}, states)
	})
}

// TestArbiter_ConcurrentEventsNeverDoubleFire hammers the arbiter from
// several goroutines; the mutual exclusion around "check cancelled, then
// fire" must hold under the race detector.
func TestArbiter_ConcurrentEventsNeverDoubleFire(t *testing.T) {
	t.Parallel()

	rec := new(shutdownRecorder)
	a := newArbiter(time.Minute, rec.invoke, nil)

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 200 {
				a.Handle(context.Background(), lost)
				a.Handle(context.Background(), restored)
			}
		}()
	}

	wg.Wait()
	a.Stop()

	require.Equal(t, int32(0), rec.calls.Load())
	require.Equal(t, power.StateIdle, a.State())
}
