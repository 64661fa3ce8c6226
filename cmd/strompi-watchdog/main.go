package main

import "github.com/oshokin/strompi-watchdog/cmd/strompi-watchdog/cmd"

func main() {
	cmd.Execute()
}
