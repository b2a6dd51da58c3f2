package main

import "github.com/oshokin/critical-alert/cmd/sos-alarm-off/cmd"

func main() {
	cmd.Execute()
}
