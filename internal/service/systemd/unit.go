package systemd

import (
	"bytes"
	"fmt"
	"text/template"
)

// UnitName is the systemd unit installed for the watchdog daemon.
const UnitName = "strompi-watchdog.service"

// unitTemplate mirrors the unit the StromPi3 vendor documentation ships,
// with a restart policy so a crashed watchdog comes back on its own.
const unitTemplate = `[Unit]
Description=StromPi3 system shutdown on power failure

[Service]
Type=simple
ExecStart={{.BinaryPath}} --config {{.ConfigPath}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

// unitData feeds the unit template.
type unitData struct {
	// BinaryPath is the installed watchdog executable.
	BinaryPath string
	// ConfigPath is the settings file the daemon reads.
	ConfigPath string
}

// renderUnit produces the unit file contents.
func renderUnit(binaryPath, configPath string) ([]byte, error) {
	tmpl, err := template.New(UnitName).Parse(unitTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse unit template: %w", err)
	}

	var buf bytes.Buffer

	data := unitData{
		BinaryPath: binaryPath,
		ConfigPath: configPath,
	}

	if err = tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render unit: %w", err)
	}

	return buf.Bytes(), nil
}
