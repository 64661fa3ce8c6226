package power

// Kind classifies a power event reported by the StromPi module.
type Kind int

const (
	// KindUnknown is the zero value; no event carries it.
	KindUnknown Kind = iota
	// KindLost means the primary power supply failed.
	KindLost
	// KindRestored means the primary power supply is back.
	KindRestored
	// KindUnparseable means the transport delivered a line it could not
	// decode. Such events are logged and dropped before the state machine.
	KindUnparseable
)

// String returns a human-readable name for the event kind.
func (k Kind) String() string {
	switch k {
	case KindLost:
		return "power lost"
	case KindRestored:
		return "power restored"
	case KindUnparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// Event is a single discrete power transition observed by a transport.
// Events are ephemeral: they are not retained beyond the tick that
// produced them.
type Event struct {
	// Kind tags the event.
	Kind Kind
	// Raw holds the original line for unparseable serial events.
	Raw string
}

// Lost reports whether the event signals a power failure.
func (e Event) Lost() bool {
	return e.Kind == KindLost
}

// Restored reports whether the event signals power coming back.
func (e Event) Restored() bool {
	return e.Kind == KindRestored
}

// ArbiterState is the shutdown arbiter's position in its state machine.
type ArbiterState int

const (
	// StateIdle means no shutdown is pending; power is presumed present.
	StateIdle ArbiterState = iota
	// StateAwaitingShutdown means a shutdown timer is running.
	StateAwaitingShutdown
)

// String returns a human-readable name for the arbiter state.
func (s ArbiterState) String() string {
	if s == StateAwaitingShutdown {
		return "awaiting shutdown"
	}

	return "idle"
}
