package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// SchedulerServer is the server-side contract for laqista.Scheduler,
// in the shape protoc-gen-go-grpc would emit from the service's proto
// definition.
type SchedulerServer interface {
	Join(context.Context, *JoinRequest) (*JoinReply, error)
	Report(context.Context, *ReportRequest) (*ReportReply, error)
	Deploy(context.Context, *DeployRequest) (*DeployReply, error)
	Lookup(context.Context, *LookupRequest) (*LookupReply, error)
	GetApps(context.Context, *GetAppsRequest) (*GetAppsReply, error)
}

// SchedulerClient is the client-side contract.
type SchedulerClient interface {
	Join(ctx context.Context, in *JoinRequest, opts ...grpc.CallOption) (*JoinReply, error)
	Report(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportReply, error)
	Deploy(ctx context.Context, in *DeployRequest, opts ...grpc.CallOption) (*DeployReply, error)
	Lookup(ctx context.Context, in *LookupRequest, opts ...grpc.CallOption) (*LookupReply, error)
	GetApps(ctx context.Context, in *GetAppsRequest, opts ...grpc.CallOption) (*GetAppsReply, error)
}

type schedulerClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulerClient wraps a ClientConn in the typed client interface.
// No codec call option is needed: jsonCodec is registered under grpc's
// default codec name.
func NewSchedulerClient(cc grpc.ClientConnInterface) SchedulerClient {
	return &schedulerClient{cc}
}

func (c *schedulerClient) Join(ctx context.Context, in *JoinRequest, opts ...grpc.CallOption) (*JoinReply, error) {
	out := new(JoinReply)
	if err := c.cc.Invoke(ctx, "/laqista.Scheduler/Join", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) Report(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportReply, error) {
	out := new(ReportReply)
	if err := c.cc.Invoke(ctx, "/laqista.Scheduler/Report", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) Deploy(ctx context.Context, in *DeployRequest, opts ...grpc.CallOption) (*DeployReply, error) {
	out := new(DeployReply)
	if err := c.cc.Invoke(ctx, "/laqista.Scheduler/Deploy", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) Lookup(ctx context.Context, in *LookupRequest, opts ...grpc.CallOption) (*LookupReply, error) {
	out := new(LookupReply)
	if err := c.cc.Invoke(ctx, "/laqista.Scheduler/Lookup", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) GetApps(ctx context.Context, in *GetAppsRequest, opts ...grpc.CallOption) (*GetAppsReply, error) {
	out := new(GetAppsReply)
	if err := c.cc.Invoke(ctx, "/laqista.Scheduler/GetApps", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterSchedulerServer registers srv's methods on s under the
// laqista.Scheduler service name.
func RegisterSchedulerServer(s grpc.ServiceRegistrar, srv SchedulerServer) {
	s.RegisterService(&Scheduler_ServiceDesc, srv)
}

func _Scheduler_Join_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(JoinRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).Join(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.Scheduler/Join"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).Join(ctx, req.(*JoinRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Scheduler_Report_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).Report(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.Scheduler/Report"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).Report(ctx, req.(*ReportRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Scheduler_Deploy_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeployRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).Deploy(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.Scheduler/Deploy"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).Deploy(ctx, req.(*DeployRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Scheduler_Lookup_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LookupRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.Scheduler/Lookup"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).Lookup(ctx, req.(*LookupRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Scheduler_GetApps_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAppsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).GetApps(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laqista.Scheduler/GetApps"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).GetApps(ctx, req.(*GetAppsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Scheduler_ServiceDesc is the grpc.ServiceDesc protoc-gen-go-grpc
// would have generated from laqista.Scheduler's proto definition.
var Scheduler_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "laqista.Scheduler",
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Join", Handler: _Scheduler_Join_Handler},
		{MethodName: "Report", Handler: _Scheduler_Report_Handler},
		{MethodName: "Deploy", Handler: _Scheduler_Deploy_Handler},
		{MethodName: "Lookup", Handler: _Scheduler_Lookup_Handler},
		{MethodName: "GetApps", Handler: _Scheduler_GetApps_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "laqista/scheduler.proto",
}
