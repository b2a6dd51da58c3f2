package main

import "github.com/oshokin/critical-alert/cmd/sos-device/cmd"

func main() {
	cmd.Execute()
}
