// Package alarm contains the device-side domain types of the alarm
// presentation: the session phase, the running session and the record of
// how the previous session ended, with Clone helpers to avoid leaking
// internal references.
package alarm
