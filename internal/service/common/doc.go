// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper with timeouts, the serve loop
// used by the dispatcher and device agent, and detection of the current
// system actor (username@hostname) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
