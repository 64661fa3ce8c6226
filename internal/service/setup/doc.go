// Package setup performs the one-time StromPi3 configuration handshake that
// switches the module between serial and serialless reporting. It refuses to
// touch the port while a watchdog daemon is running.
package setup
