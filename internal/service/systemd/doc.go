// Package systemd installs the watchdog as a systemd service: it renders the
// unit file, writes it to the administrator unit directory and can reload
// and enable the unit in one go.
package systemd
