package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServerDaemonServer is the server-side contract for
// laqista.ServerDaemon: the per-node control surface used for health
// checks, election cross-checks, telemetry pull, and deployment
// lifecycle broadcasts.
type ServerDaemonServer interface {
	GetInfo(context.Context, *GetInfoRequest) (*GetInfoReply, error)
	Ping(context.Context, *PingRequest) (*PingReply, error)
	Nominate(context.Context, *NominateRequest) (*NominateReply, error)
	Monitor(context.Context, *MonitorRequest) (*MonitorReply, error)
	Spawn(context.Context, *SpawnRequest) (*SpawnReply, error)
	Destroy(context.Context, *DestroyRequest) (*DestroyReply, error)
}

type ServerDaemonClient interface {
	GetInfo(ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption) (*GetInfoReply, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error)
	Nominate(ctx context.Context, in *NominateRequest, opts ...grpc.CallOption) (*NominateReply, error)
	Monitor(ctx context.Context, in *MonitorRequest, opts ...grpc.CallOption) (*MonitorReply, error)
	Spawn(ctx context.Context, in *SpawnRequest, opts ...grpc.CallOption) (*SpawnReply, error)
	Destroy(ctx context.Context, in *DestroyRequest, opts ...grpc.CallOption) (*DestroyReply, error)
}

type serverDaemonClient struct {
	cc grpc.ClientConnInterface
}

func NewServerDaemonClient(cc grpc.ClientConnInterface) ServerDaemonClient {
	return &serverDaemonClient{cc}
}

func (c *serverDaemonClient) GetInfo(ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption) (*GetInfoReply, error) {
	out := new(GetInfoReply)
	if err := c.cc.Invoke(ctx, "/laqista.ServerDaemon/GetInfo", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serverDaemonClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error) {
	out := new(PingReply)
	if err := c.cc.Invoke(ctx, "/laqista.ServerDaemon/Ping", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serverDaemonClient) Nominate(ctx context.Context, in *NominateRequest, opts ...grpc.CallOption) (*NominateReply, error) {
	out := new(NominateReply)
	if err := c.cc.Invoke(ctx, "/laqista.ServerDaemon/Nominate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serverDaemonClient) Monitor(ctx context.Context, in *MonitorRequest, opts ...grpc.CallOption) (*MonitorReply, error) {
	out := new(MonitorReply)
	if err := c.cc.Invoke(ctx, "/laqista.ServerDaemon/Monitor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serverDaemonClient) Spawn(ctx context.Context, in *SpawnRequest, opts ...grpc.CallOption) (*SpawnReply, error) {
	out := new(SpawnReply)
	if err := c.cc.Invoke(ctx, "/laqista.ServerDaemon/Spawn", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serverDaemonClient) Destroy(ctx context.Context, in *DestroyRequest, opts ...grpc.CallOption) (*DestroyReply, error) {
	out := new(DestroyReply)
	if err := c.cc.Invoke(ctx, "/laqista.ServerDaemon/Destroy", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterServerDaemonServer(s grpc.ServiceRegistrar, srv ServerDaemonServer) {
	s.RegisterService(&ServerDaemon_ServiceDesc, srv)
}

func _ServerDaemon_GetInfo_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerDaemonServer).GetInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.ServerDaemon/GetInfo"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServerDaemonServer).GetInfo(ctx, req.(*GetInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ServerDaemon_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerDaemonServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.ServerDaemon/Ping"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServerDaemonServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ServerDaemon_Nominate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(NominateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerDaemonServer).Nominate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.ServerDaemon/Nominate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServerDaemonServer).Nominate(ctx, req.(*NominateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ServerDaemon_Monitor_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(MonitorRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerDaemonServer).Monitor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.ServerDaemon/Monitor"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServerDaemonServer).Monitor(ctx, req.(*MonitorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ServerDaemon_Spawn_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SpawnRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerDaemonServer).Spawn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.ServerDaemon/Spawn"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServerDaemonServer).Spawn(ctx, req.(*SpawnRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ServerDaemon_Destroy_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DestroyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerDaemonServer).Destroy(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.ServerDaemon/Destroy"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServerDaemonServer).Destroy(ctx, req.(*DestroyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ServerDaemon_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "laqista.ServerDaemon",
	HandlerType: (*ServerDaemonServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetInfo", Handler: _ServerDaemon_GetInfo_Handler},
		{MethodName: "Ping", Handler: _ServerDaemon_Ping_Handler},
		{MethodName: "Nominate", Handler: _ServerDaemon_Nominate_Handler},
		{MethodName: "Monitor", Handler: _ServerDaemon_Monitor_Handler},
		{MethodName: "Spawn", Handler: _ServerDaemon_Spawn_Handler},
		{MethodName: "Destroy", Handler: _ServerDaemon_Destroy_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "laqista/daemon.proto",
}
