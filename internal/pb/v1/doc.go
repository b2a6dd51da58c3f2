// Package pb holds the gRPC service descriptors of the alert dispatcher and
// the device agent.
//
// Messages are protobuf well-known types: structpb.Struct carries the
// JSON-shaped callable payloads, wrapperspb.StringValue carries
// human-readable acknowledgements and emptypb.Empty stands for "no input".
// The typed helpers in this package convert between those and plain Go
// structs so the rest of the code never touches structpb directly.
package pb
