package main

import "github.com/oshokin/strompi-watchdog/cmd/strompi-installer/cmd"

func main() {
	cmd.Execute()
}
