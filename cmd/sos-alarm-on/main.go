package main

import "github.com/oshokin/critical-alert/cmd/sos-alarm-on/cmd"

func main() {
	cmd.Execute()
}
