// Package power contains the core domain types of the watchdog.
//
// It defines Event (a discrete power transition reported by a transport) and
// ArbiterState (the shutdown state machine's position). Both transports
// normalize their physical signals into these types so nothing downstream
// branches on the transport kind.
package power
