// Package device implements the gRPC transport for the device control surface.
//
// Control errors are returned as gRPC statuses carrying an ErrorInfo detail
// whose reason is the control error code, so callers can tell a missing
// permission from a broken service.
package device
