// Package trigger implements sos-trigger, the command line stand-in for the
// panic button: it asks the dispatcher to alert the responders of a target.
package trigger
