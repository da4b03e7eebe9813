// Package officerpc declares the gRPC OfficeService used to read the simulation state
// remotely. Messages are protobuf well-known types; the office state travels as a
// google.protobuf.Struct holding the JSON form of shared.OfficeState.
package officerpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "office.OfficeService"

	GetOfficeStateMethod   = "/office.OfficeService/GetOfficeState"
	HealthCheckMethod      = "/office.OfficeService/HealthCheck"
	WatchOfficeStateMethod = "/office.OfficeService/WatchOfficeState"
)

// OfficeServiceServer is the server API for OfficeService
type OfficeServiceServer interface {
	GetOfficeState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	HealthCheck(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	// WatchOfficeState pushes the state every interval until the client goes away
	WatchOfficeState(*durationpb.Duration, OfficeService_WatchOfficeStateServer) error
}

// OfficeService_WatchOfficeStateServer is the server side of the watch stream
type OfficeService_WatchOfficeStateServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchOfficeStateServer struct {
	grpc.ServerStream
}

func (x *watchOfficeStateServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterOfficeServiceServer registers srv with a gRPC server
func RegisterOfficeServiceServer(s grpc.ServiceRegistrar, srv OfficeServiceServer) {
	s.RegisterService(&officeServiceDesc, srv)
}

var officeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OfficeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetOfficeState",
			Handler:    getOfficeStateHandler,
		},
		{
			MethodName: "HealthCheck",
			Handler:    healthCheckHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchOfficeState",
			Handler:       watchOfficeStateHandler,
			ServerStreams: true,
		},
	},
	Metadata: "office.proto",
}

func getOfficeStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OfficeServiceServer).GetOfficeState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetOfficeStateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OfficeServiceServer).GetOfficeState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func healthCheckHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OfficeServiceServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: HealthCheckMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OfficeServiceServer).HealthCheck(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchOfficeStateHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(durationpb.Duration)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(OfficeServiceServer).WatchOfficeState(m, &watchOfficeStateServer{stream})
}
