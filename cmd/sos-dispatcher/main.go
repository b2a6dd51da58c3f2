package main

import "github.com/oshokin/critical-alert/cmd/sos-dispatcher/cmd"

func main() {
	cmd.Execute()
}
