package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of sos.v1.AlertService.
const (
	AlertServiceName                       = "sos.v1.AlertService"
	AlertServiceTriggerCriticalAlertMethod = "/sos.v1.AlertService/TriggerCriticalAlert"
)

// AlertServiceServer is the server API of the dispatcher.
type AlertServiceServer interface {
	TriggerCriticalAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedAlertServiceServer answers every call with codes.Unimplemented.
type UnimplementedAlertServiceServer struct{}

// TriggerCriticalAlert implements AlertServiceServer.
func (UnimplementedAlertServiceServer) TriggerCriticalAlert(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method TriggerCriticalAlert not implemented")
}

// RegisterAlertServiceServer registers srv on s.
func RegisterAlertServiceServer(s grpc.ServiceRegistrar, srv AlertServiceServer) {
	s.RegisterService(&AlertServiceDesc, srv)
}

func alertServiceTriggerHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).TriggerCriticalAlert(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertServiceTriggerCriticalAlertMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).TriggerCriticalAlert(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

// AlertServiceDesc describes sos.v1.AlertService.
//
//nolint:gochecknoglobals // grpc.ServiceRegistrar takes the descriptor by pointer.
var AlertServiceDesc = grpc.ServiceDesc{
	ServiceName: AlertServiceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "TriggerCriticalAlert",
			Handler:    alertServiceTriggerHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sos/v1/alert.proto",
}

// AlertServiceClient is the client API of the dispatcher.
type AlertServiceClient interface {
	TriggerCriticalAlert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type alertServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlertServiceClient creates a dispatcher client on top of cc.
//
//nolint:ireturn // Mirrors generated gRPC client constructors.
func NewAlertServiceClient(cc grpc.ClientConnInterface) AlertServiceClient {
	return &alertServiceClient{cc: cc}
}

func (c *alertServiceClient) TriggerCriticalAlert(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlertServiceTriggerCriticalAlertMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
