package proto

import (
	"context"

	"google.golang.org/grpc"
)

// VoteRequestArgs, VoteReply, GlobalCommitArgs and GlobalAbortArgs mirror
// spec.md §6's field-exact 2PC wire contract.
type VoteRequestArgs struct {
	TransactionID string `json:"transactionId"`
	RideID        string `json:"rideId"`
	DriverID      string `json:"driverId"`
}

type VoteReply struct {
	VoteCommit bool `json:"voteCommit"`
}

type GlobalCommitArgs struct {
	TransactionID string `json:"transactionId"`
	RideID        string `json:"rideId"`
	DriverID      string `json:"driverId"`
}

type GlobalCommitReply struct{}

type GlobalAbortArgs struct {
	TransactionID string `json:"transactionId"`
}

type GlobalAbortReply struct{}

// TwoPCServer is the contract a 2PC participant's RPC handlers satisfy.
type TwoPCServer interface {
	VoteRequest(context.Context, *VoteRequestArgs) (*VoteReply, error)
	GlobalCommit(context.Context, *GlobalCommitArgs) (*GlobalCommitReply, error)
	GlobalAbort(context.Context, *GlobalAbortArgs) (*GlobalAbortReply, error)
}

type UnimplementedTwoPCServer struct{}

func (UnimplementedTwoPCServer) VoteRequest(context.Context, *VoteRequestArgs) (*VoteReply, error) {
	return nil, errUnimplemented("VoteRequest")
}

func (UnimplementedTwoPCServer) GlobalCommit(context.Context, *GlobalCommitArgs) (*GlobalCommitReply, error) {
	return nil, errUnimplemented("GlobalCommit")
}

func (UnimplementedTwoPCServer) GlobalAbort(context.Context, *GlobalAbortArgs) (*GlobalAbortReply, error) {
	return nil, errUnimplemented("GlobalAbort")
}

type TwoPCClient interface {
	VoteRequest(ctx context.Context, in *VoteRequestArgs, opts ...grpc.CallOption) (*VoteReply, error)
	GlobalCommit(ctx context.Context, in *GlobalCommitArgs, opts ...grpc.CallOption) (*GlobalCommitReply, error)
	GlobalAbort(ctx context.Context, in *GlobalAbortArgs, opts ...grpc.CallOption) (*GlobalAbortReply, error)
}

type twoPCClient struct {
	cc grpc.ClientConnInterface
}

func NewTwoPCClient(cc grpc.ClientConnInterface) TwoPCClient {
	return &twoPCClient{cc}
}

func (c *twoPCClient) VoteRequest(ctx context.Context, in *VoteRequestArgs, opts ...grpc.CallOption) (*VoteReply, error) {
	out := new(VoteReply)
	if err := c.cc.Invoke(ctx, "/twopc.TwoPC/VoteRequest", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *twoPCClient) GlobalCommit(ctx context.Context, in *GlobalCommitArgs, opts ...grpc.CallOption) (*GlobalCommitReply, error) {
	out := new(GlobalCommitReply)
	if err := c.cc.Invoke(ctx, "/twopc.TwoPC/GlobalCommit", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *twoPCClient) GlobalAbort(ctx context.Context, in *GlobalAbortArgs, opts ...grpc.CallOption) (*GlobalAbortReply, error) {
	out := new(GlobalAbortReply)
	if err := c.cc.Invoke(ctx, "/twopc.TwoPC/GlobalAbort", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterTwoPCServer(s grpc.ServiceRegistrar, srv TwoPCServer) {
	s.RegisterService(&twoPCServiceDesc, srv)
}

func _TwoPC_VoteRequest_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(VoteRequestArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TwoPCServer).VoteRequest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/twopc.TwoPC/VoteRequest"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TwoPCServer).VoteRequest(ctx, req.(*VoteRequestArgs))
	}
	return interceptor(ctx, in, info, handler)
}

func _TwoPC_GlobalCommit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GlobalCommitArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TwoPCServer).GlobalCommit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/twopc.TwoPC/GlobalCommit"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TwoPCServer).GlobalCommit(ctx, req.(*GlobalCommitArgs))
	}
	return interceptor(ctx, in, info, handler)
}

func _TwoPC_GlobalAbort_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GlobalAbortArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TwoPCServer).GlobalAbort(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/twopc.TwoPC/GlobalAbort"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TwoPCServer).GlobalAbort(ctx, req.(*GlobalAbortArgs))
	}
	return interceptor(ctx, in, info, handler)
}

var twoPCServiceDesc = grpc.ServiceDesc{
	ServiceName: "twopc.TwoPC",
	HandlerType: (*TwoPCServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "VoteRequest", Handler: _TwoPC_VoteRequest_Handler},
		{MethodName: "GlobalCommit", Handler: _TwoPC_GlobalCommit_Handler},
		{MethodName: "GlobalAbort", Handler: _TwoPC_GlobalAbort_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "twopc.proto",
}
