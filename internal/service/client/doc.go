// Package client implements sos-alarm-on and sos-alarm-off, the host
// application stand-ins that start and stop the alarm on a device agent.
package client
