package setup

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCommandSequence pins the exact byte protocol the firmware expects.
func TestCommandSequence(t *testing.T) {
	t.Parallel()

	steps := commandSequence(true)
	require.Len(t, steps, 4)
	require.Equal(t, "quit", steps[0].payload)
	require.Equal(t, "\x0d", steps[1].payload)
	require.Equal(t, "set-config 0 2", steps[2].payload)
	require.Equal(t, "\x0d", steps[3].payload)

	steps = commandSequence(false)
	require.Equal(t, "set-config 0 0", steps[2].payload)
}

// TestWriteSequence replays the handshake into a buffer and verifies the
// pauses the firmware needs are requested in order.
func TestWriteSequence(t *testing.T) {
	t.Parallel()

	var (
		buf    bytes.Buffer
		pauses []time.Duration
	)

	sleep := func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)

		return nil
	}

	require.NoError(t, writeSequence(t.Context(), &buf, commandSequence(true), sleep))
	require.Equal(t, "quit\x0dset-config 0 2\x0d", buf.String())
	require.Equal(t, []time.Duration{shortPause, longPause, shortPause, longPause}, pauses)
}

// TestWriteSequence_StopsOnCancel ensures a canceled context aborts the
// handshake between steps.
func TestWriteSequence_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var buf bytes.Buffer

	err := writeSequence(ctx, &buf, commandSequence(true), contextSleep)
	require.ErrorIs(t, err, context.Canceled)

	// Only the first payload went out before the canceled pause.
	require.Equal(t, "quit", buf.String())
}
