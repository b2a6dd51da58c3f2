package main

import "github.com/oshokin/critical-alert/cmd/sos-seed/cmd"

func main() {
	cmd.Execute()
}
