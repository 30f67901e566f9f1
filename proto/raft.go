package proto

import (
	"context"

	"google.golang.org/grpc"
)

// LogEntry mirrors spec.md §6 field-for-field: Op carries the opaque
// command payload, JSON-encoded as a base64 string on the wire.
type LogEntry struct {
	Op    []byte `json:"op"`
	Term  uint64 `json:"term"`
	Index uint64 `json:"index"`
}

type RequestVoteRequest struct {
	Term        uint64 `json:"term"`
	CandidateID string `json:"candidateId"`
}

type RequestVoteReply struct {
	Term        uint64 `json:"term"`
	VoteGranted bool   `json:"voteGranted"`
}

// AppendEntriesRequest carries the leader's entire log (whole-log
// replication, per spec.md §4.1/§9) rather than a single PrevLogIndex
// delta.
type AppendEntriesRequest struct {
	Term        uint64      `json:"term"`
	LeaderID    string      `json:"leaderId"`
	Entries     []*LogEntry `json:"entries"`
	CommitIndex uint64      `json:"commitIndex"`
}

type AppendEntriesReply struct {
	Term    uint64 `json:"term"`
	Success bool   `json:"success"`
}

// RaftServer is the service contract a Raft node's RPC handlers satisfy.
type RaftServer interface {
	RequestVote(context.Context, *RequestVoteRequest) (*RequestVoteReply, error)
	AppendEntries(context.Context, *AppendEntriesRequest) (*AppendEntriesReply, error)
}

// UnimplementedRaftServer can be embedded to satisfy RaftServer for
// partial implementations, matching the protoc-gen-go-grpc convention.
type UnimplementedRaftServer struct{}

func (UnimplementedRaftServer) RequestVote(context.Context, *RequestVoteRequest) (*RequestVoteReply, error) {
	return nil, errUnimplemented("RequestVote")
}

func (UnimplementedRaftServer) AppendEntries(context.Context, *AppendEntriesRequest) (*AppendEntriesReply, error) {
	return nil, errUnimplemented("AppendEntries")
}

// RaftClient is the client-side stub for the Raft RPC surface.
type RaftClient interface {
	RequestVote(ctx context.Context, in *RequestVoteRequest, opts ...grpc.CallOption) (*RequestVoteReply, error)
	AppendEntries(ctx context.Context, in *AppendEntriesRequest, opts ...grpc.CallOption) (*AppendEntriesReply, error)
}

type raftClient struct {
	cc grpc.ClientConnInterface
}

func NewRaftClient(cc grpc.ClientConnInterface) RaftClient {
	return &raftClient{cc}
}

func (c *raftClient) RequestVote(ctx context.Context, in *RequestVoteRequest, opts ...grpc.CallOption) (*RequestVoteReply, error) {
	out := new(RequestVoteReply)
	if err := c.cc.Invoke(ctx, "/raft.Raft/RequestVote", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftClient) AppendEntries(ctx context.Context, in *AppendEntriesRequest, opts ...grpc.CallOption) (*AppendEntriesReply, error) {
	out := new(AppendEntriesReply)
	if err := c.cc.Invoke(ctx, "/raft.Raft/AppendEntries", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterRaftServer(s grpc.ServiceRegistrar, srv RaftServer) {
	s.RegisterService(&raftServiceDesc, srv)
}

func _Raft_RequestVote_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RequestVoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).RequestVote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/raft.Raft/RequestVote"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).RequestVote(ctx, req.(*RequestVoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Raft_AppendEntries_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AppendEntriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).AppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/raft.Raft/AppendEntries"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).AppendEntries(ctx, req.(*AppendEntriesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var raftServiceDesc = grpc.ServiceDesc{
	ServiceName: "raft.Raft",
	HandlerType: (*RaftServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestVote", Handler: _Raft_RequestVote_Handler},
		{MethodName: "AppendEntries", Handler: _Raft_AppendEntries_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "raft.proto",
}
