package main

import "github.com/oshokin/critical-alert/cmd/sos-trigger/cmd"

func main() {
	cmd.Execute()
}
