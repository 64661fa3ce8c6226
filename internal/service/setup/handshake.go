package setup

import (
	"context"
	"fmt"
	"io"
	"time"
)

// The StromPi3 firmware is driven over its serial console. Commands are
// terminated by a bare carriage return and the firmware needs a beat between
// them, mirrored from the vendor configuration scripts.
const (
	// quitCommand leaves any menu the firmware console might be sitting in.
	quitCommand = "quit"
	// enableCommand switches the module into serialless (GPIO) mode.
	enableCommand = "set-config 0 2"
	// disableCommand switches the module back to serial mode.
	disableCommand = "set-config 0 0"
	// carriageReturn commits the preceding command.
	carriageReturn = "\x0d"

	// shortPause follows a command payload.
	shortPause = 100 * time.Millisecond
	// longPause follows the committing carriage return.
	longPause = 200 * time.Millisecond
)

// step is one write in the handshake with the pause that must follow it.
type step struct {
	// payload is written to the port.
	payload string
	// pause is how long the firmware needs before the next write.
	pause time.Duration
}

// commandSequence builds the handshake switching serialless mode on or off.
func commandSequence(enable bool) []step {
	command := disableCommand
	if enable {
		command = enableCommand
	}

	return []step{
		{payload: quitCommand, pause: shortPause},
		{payload: carriageReturn, pause: longPause},
		{payload: command, pause: shortPause},
		{payload: carriageReturn, pause: longPause},
	}
}

// writeSequence plays the handshake onto the port. The sleep function is
// injected so tests do not wait out real firmware pauses.
func writeSequence(ctx context.Context, w io.Writer, steps []step, sleep func(context.Context, time.Duration) error) error {
	for _, s := range steps {
		if _, err := io.WriteString(w, s.payload); err != nil {
			return fmt.Errorf("write %q: %w", s.payload, err)
		}

		if err := sleep(ctx, s.pause); err != nil {
			return err
		}
	}

	return nil
}

// contextSleep pauses for d unless the context ends first.
func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
