// Package device implements the alarm capabilities on real hosts.
//
// Desktop drives stock OS tools (amixer, paplay, notify-send and
// systemd-inhibit on Linux; osascript, afplay and caffeinate on macOS).
// Headless only logs and is meant for servers and tests.
package device
