package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Full method names of sos.v1.DeviceService.
const (
	DeviceServiceName                     = "sos.v1.DeviceService"
	DeviceServiceStartCriticalAlertMethod = "/sos.v1.DeviceService/StartCriticalAlert"
	DeviceServiceStopCriticalAlertMethod  = "/sos.v1.DeviceService/StopCriticalAlert"
	DeviceServiceDeliverAlertMethod       = "/sos.v1.DeviceService/DeliverAlert"
	DeviceServiceGetAlarmStateMethod      = "/sos.v1.DeviceService/GetAlarmState"
)

// DeviceServiceServer is the device-local control surface.
type DeviceServiceServer interface {
	StartCriticalAlert(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
	StopCriticalAlert(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error)
	DeliverAlert(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
	GetAlarmState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedDeviceServiceServer answers every call with codes.Unimplemented.
type UnimplementedDeviceServiceServer struct{}

// StartCriticalAlert implements DeviceServiceServer.
func (UnimplementedDeviceServiceServer) StartCriticalAlert(
	context.Context,
	*structpb.Struct,
) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method StartCriticalAlert not implemented")
}

// StopCriticalAlert implements DeviceServiceServer.
func (UnimplementedDeviceServiceServer) StopCriticalAlert(
	context.Context,
	*emptypb.Empty,
) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method StopCriticalAlert not implemented")
}

// DeliverAlert implements DeviceServiceServer.
func (UnimplementedDeviceServiceServer) DeliverAlert(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method DeliverAlert not implemented")
}

// GetAlarmState implements DeviceServiceServer.
func (UnimplementedDeviceServiceServer) GetAlarmState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAlarmState not implemented")
}

// RegisterDeviceServiceServer registers srv on s.
func RegisterDeviceServiceServer(s grpc.ServiceRegistrar, srv DeviceServiceServer) {
	s.RegisterService(&DeviceServiceDesc, srv)
}

// unaryHandler builds a grpc.MethodHandler for a DeviceServiceServer method.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(srv DeviceServiceServer, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(DeviceServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DeviceServiceServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// DeviceServiceDesc describes sos.v1.DeviceService.
//
//nolint:gochecknoglobals // grpc.ServiceRegistrar takes the descriptor by pointer.
var DeviceServiceDesc = grpc.ServiceDesc{
	ServiceName: DeviceServiceName,
	HandlerType: (*DeviceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartCriticalAlert",
			Handler: unaryHandler(DeviceServiceStartCriticalAlertMethod,
				func(srv DeviceServiceServer, ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
					return srv.StartCriticalAlert(ctx, req)
				}),
		},
		{
			MethodName: "StopCriticalAlert",
			Handler: unaryHandler(DeviceServiceStopCriticalAlertMethod,
				func(srv DeviceServiceServer, ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {
					return srv.StopCriticalAlert(ctx, req)
				}),
		},
		{
			MethodName: "DeliverAlert",
			Handler: unaryHandler(DeviceServiceDeliverAlertMethod,
				func(srv DeviceServiceServer, ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
					return srv.DeliverAlert(ctx, req)
				}),
		},
		{
			MethodName: "GetAlarmState",
			Handler: unaryHandler(DeviceServiceGetAlarmStateMethod,
				func(srv DeviceServiceServer, ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
					return srv.GetAlarmState(ctx, req)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sos/v1/device.proto",
}

// DeviceServiceClient is the client API of the device agent.
type DeviceServiceClient interface {
	StartCriticalAlert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	StopCriticalAlert(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	DeliverAlert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetAlarmState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type deviceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDeviceServiceClient creates a device agent client on top of cc.
//
//nolint:ireturn // Mirrors generated gRPC client constructors.
func NewDeviceServiceClient(cc grpc.ClientConnInterface) DeviceServiceClient {
	return &deviceServiceClient{cc: cc}
}

func (c *deviceServiceClient) StartCriticalAlert(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, DeviceServiceStartCriticalAlertMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *deviceServiceClient) StopCriticalAlert(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, DeviceServiceStopCriticalAlertMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *deviceServiceClient) DeliverAlert(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, DeviceServiceDeliverAlertMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *deviceServiceClient) GetAlarmState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DeviceServiceGetAlarmStateMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
