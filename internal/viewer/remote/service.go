package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pcv.Viewer"

const (
	methodListClouds = "/" + ServiceName + "/ListClouds"
	methodPick       = "/" + ServiceName + "/Pick"
	methodKey        = "/" + ServiceName + "/Key"
	methodClose      = "/" + ServiceName + "/Close"
)

// ViewerServer is the server side of the viewer service. Messages are
// well-known protobuf types so no generated code is needed.
type ViewerServer interface {
	ListClouds(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Pick(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Key(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Close(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ViewerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListClouds",
			Handler: unary(methodListClouds, func() *emptypb.Empty { return new(emptypb.Empty) },
				func(s ViewerServer, ctx context.Context, in *emptypb.Empty) (interface{}, error) { return s.ListClouds(ctx, in) }),
		},
		{
			MethodName: "Pick",
			Handler: unary(methodPick, func() *structpb.Struct { return new(structpb.Struct) },
				func(s ViewerServer, ctx context.Context, in *structpb.Struct) (interface{}, error) { return s.Pick(ctx, in) }),
		},
		{
			MethodName: "Key",
			Handler: unary(methodKey, func() *structpb.Struct { return new(structpb.Struct) },
				func(s ViewerServer, ctx context.Context, in *structpb.Struct) (interface{}, error) { return s.Key(ctx, in) }),
		},
		{
			MethodName: "Close",
			Handler: unary(methodClose, func() *emptypb.Empty { return new(emptypb.Empty) },
				func(s ViewerServer, ctx context.Context, in *emptypb.Empty) (interface{}, error) { return s.Close(ctx, in) }),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pcv/viewer.proto",
}

// RegisterViewerServer registers srv on s.
func RegisterViewerServer(s grpc.ServiceRegistrar, srv ViewerServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary builds a grpc method handler decoding into a fresh In and calling
// call, going through the interceptor when one is installed.
func unary[In any](fullMethod string, newIn func() In, call func(ViewerServer, context.Context, In) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newIn()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ViewerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ViewerServer), ctx, req.(In))
		}
		return interceptor(ctx, in, info, handler)
	}
}
