// Package serial implements the serial-port transport for the StromPi3.
//
// The module prints one sentinel line per power transition
// ("xxxShutdownRaspberryPixxx" on failure, "xxx--StromPiPowerBack--xxx" on
// recovery). The Listener reads the port with a short timeout, reassembles
// lines across partial reads, and maps them to power events. Anything that
// is not a sentinel is logged and dropped without disturbing the stream.
package serial
