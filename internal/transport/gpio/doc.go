// Package gpio implements the serialless transport for the StromPi3.
//
// In serialless mode the module signals power failures on a dedicated pin
// (BCM 21 on Rev1.1 boards): low means the primary supply is gone, high
// means mains or battery-backed operation. The Watcher claims the pin via
// the GPIO character device, subscribes to both edges and maps them to
// power events. Electrical bounce is not handled here; the watchdog's
// debounce filter owns that policy.
package gpio
