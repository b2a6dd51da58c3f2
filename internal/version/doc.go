// Package version exposes build metadata for every binary.
//
// Version, Commit and BuildTime are injected with -ldflags "-X ...".
package version
