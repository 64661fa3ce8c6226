package main

import "github.com/oshokin/strompi-watchdog/cmd/strompi-setup/cmd"

func main() {
	cmd.Execute()
}
