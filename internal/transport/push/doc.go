// Package push implements the push-delivery transports the dispatcher fans
// out through.
//
// A Transport receives one Message addressed to many devices and reports
// one Outcome per address, in address order. Three transports exist: an
// HTTP batch gateway, direct delivery to device agents over gRPC, and a
// dry-run transport that only logs.
package push
