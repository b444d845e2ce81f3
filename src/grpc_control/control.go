package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "casinomonitor.control.v1.MonitorControl"

// MonitorControlServer is the control surface served over gRPC. Messages use
// the well-known Struct and Empty types so no generated code is needed.
type MonitorControlServer interface {
	ListSubscriptions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	OpenSubscription(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseSubscription(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterMonitorControlServer(s grpc.ServiceRegistrar, srv MonitorControlServer) {
	s.RegisterService(&MonitorControl_ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func unaryHandler[Req any](method string, call func(MonitorControlServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MonitorControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MonitorControlServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var MonitorControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MonitorControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ListSubscriptions", MonitorControlServer.ListSubscriptions),
		unaryHandler("OpenSubscription", MonitorControlServer.OpenSubscription),
		unaryHandler("CloseSubscription", MonitorControlServer.CloseSubscription),
		unaryHandler("GetStatus", MonitorControlServer.GetStatus),
	},
	Streams: []grpc.StreamDesc{},
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type MonitorControlClient struct {
	cc grpc.ClientConnInterface
}

func NewMonitorControlClient(cc grpc.ClientConnInterface) *MonitorControlClient {
	return &MonitorControlClient{cc: cc}
}

func (c *MonitorControlClient) invoke(ctx context.Context, method string, in interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MonitorControlClient) ListSubscriptions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListSubscriptions", &emptypb.Empty{}, opts...)
}

func (c *MonitorControlClient) OpenSubscription(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "OpenSubscription", in, opts...)
}

func (c *MonitorControlClient) CloseSubscription(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CloseSubscription", in, opts...)
}

func (c *MonitorControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetStatus", &emptypb.Empty{}, opts...)
}
