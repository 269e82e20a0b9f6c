package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "bobiz.v1.ExchangeEngine"

// EngineServer is the server API of the exchange engine. Requests and
// responses are protobuf Structs whose fields are checked by the handlers.
type EngineServer interface {
	CreateExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AcceptExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CompleteExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListMyExchanges(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

	CreateEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddNeed(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetEventStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetEventStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Position(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

	GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

	GetNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	MarkNotificationRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

	RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type methodHandler func(srv EngineServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call methodHandler) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EngineServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EngineServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateExchange", EngineServer.CreateExchange),
		unary("AcceptExchange", EngineServer.AcceptExchange),
		unary("CompleteExchange", EngineServer.CompleteExchange),
		unary("CancelExchange", EngineServer.CancelExchange),
		unary("GetExchange", EngineServer.GetExchange),
		unary("ListMyExchanges", EngineServer.ListMyExchanges),
		unary("CreateEvent", EngineServer.CreateEvent),
		unary("AddNeed", EngineServer.AddNeed),
		unary("SetEventStatus", EngineServer.SetEventStatus),
		unary("GetEventStatus", EngineServer.GetEventStatus),
		unary("Position", EngineServer.Position),
		unary("Withdraw", EngineServer.Withdraw),
		unary("GetBalance", EngineServer.GetBalance),
		unary("GetHistory", EngineServer.GetHistory),
		unary("GetNotifications", EngineServer.GetNotifications),
		unary("MarkNotificationRead", EngineServer.MarkNotificationRead),
		unary("RefreshToken", EngineServer.RefreshToken),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bobiz/v1/engine.proto",
}

func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&ServiceDesc, srv)
}
