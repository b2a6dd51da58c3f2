// Package alert implements the gRPC transport of the dispatcher.
//
// It decodes the callable request, takes the caller identity from request
// metadata, calls into a provided business-service interface and maps the
// dispatcher error taxonomy onto gRPC status codes.
package alert
