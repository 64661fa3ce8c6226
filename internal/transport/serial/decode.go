package serial

import (
	"strings"
	"unicode/utf8"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
)

// Sentinel substrings the StromPi3 firmware prints on power transitions.
const (
	// powerBackSentinel is printed when the primary supply returns.
	powerBackSentinel = "xxx--StromPiPowerBack--xxx"
	// shutdownSentinel is printed when the module requests a shutdown
	// because the primary supply failed.
	shutdownSentinel = "xxxShutdownRaspberryPixxx"
)

// decodeLine maps one complete serial line to a power event.
// The boolean result is false when the line is not valid UTF-8, in which
// case the event is unparseable and should be logged as a warning rather
// than as ignorable chatter.
func decodeLine(line []byte) (power.Event, bool) {
	if !utf8.Valid(line) {
		return power.Event{Kind: power.KindUnparseable, Raw: string(line)}, false
	}

	text := string(line)

	switch {
	case strings.Contains(text, powerBackSentinel):
		return power.Event{Kind: power.KindRestored}, true
	case strings.Contains(text, shutdownSentinel):
		return power.Event{Kind: power.KindLost}, true
	default:
		return power.Event{Kind: power.KindUnparseable, Raw: text}, true
	}
}
