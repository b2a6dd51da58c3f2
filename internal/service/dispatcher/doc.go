// Package dispatcher resolves who must be notified about a critical alert
// and fans one push message out to their devices.
//
// The pipeline is: resolve target, resolve responders, resolve delivery
// addresses concurrently, build the envelope, send once through the push
// transport and aggregate the per-address outcomes. Command wires it into
// the sos-dispatcher gRPC server.
package dispatcher
