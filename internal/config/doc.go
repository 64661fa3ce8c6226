// Package config defines the watchdog settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type selects the transport (serial or GPIO), its address, the
// shutdown delay and the debounce window. Validation fills in the StromPi3
// defaults so an empty file yields a working serial setup.
package config
