// Package device hosts the alarm presenter on a responder's machine and
// exposes the device-local control surface used by the host application
// and by direct push deliveries.
package device
