// Package presenter owns the device alarm: a single-session state machine
// that seizes audio and notification priority when an alert arrives, rings
// until the alert is dismissed or its deadline passes, and always releases
// every resource it took on the way out.
//
// The device capabilities it drives (volume, playback, notifications,
// foreground elevation) are interfaces declared here and implemented by
// internal/device.
package presenter
