// Package transport abstracts the two physical channels the StromPi3 uses to
// report power failures: sentinel lines on the serial port and level changes
// on the serialless signal pin. Both are normalized into power.Event values
// so the watchdog core stays transport-agnostic.
package transport
