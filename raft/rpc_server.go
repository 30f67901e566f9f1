// raft/rpc_server.go
package raft

import (
	"context"

	"github.com/cong-n-tran/raft-sidecar/proto"
)

// raftServer adapts a Node onto the proto.RaftServer gRPC contract.
type raftServer struct {
	proto.UnimplementedRaftServer
	node *Node
}

func (s *raftServer) RequestVote(ctx context.Context, req *proto.RequestVoteRequest) (*proto.RequestVoteReply, error) {
	return s.node.HandleRequestVote(req), nil
}

func (s *raftServer) AppendEntries(ctx context.Context, req *proto.AppendEntriesRequest) (*proto.AppendEntriesReply, error) {
	return s.node.HandleAppendEntries(req), nil
}
