// raft/rpc_client.go
package raft

import (
	"context"
	"sync"
	"time"

	"github.com/cong-n-tran/raft-sidecar/proto"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// RPCClient is the outbound transport a Node uses to reach its peers.
// It is an interface so tests can substitute an in-process fake instead
// of dialing real sockets.
type RPCClient interface {
	RequestVote(peerID, address string, req *proto.RequestVoteRequest) (*proto.RequestVoteReply, error)
	AppendEntries(peerID, address string, req *proto.AppendEntriesRequest) (*proto.AppendEntriesReply, error)
}

// GRPCRaftClient dials and caches one connection per peer address.
type GRPCRaftClient struct {
	mu          sync.Mutex
	connections map[string]*grpc.ClientConn
	timeout     time.Duration
}

// NewGRPCRaftClient creates a gRPC-backed RPCClient bounding every call
// with the given per-RPC deadline.
func NewGRPCRaftClient(timeout time.Duration) *GRPCRaftClient {
	return &GRPCRaftClient{
		connections: make(map[string]*grpc.ClientConn),
		timeout:     timeout,
	}
}

func (c *GRPCRaftClient) getConnection(address string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.connections[address]; ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	c.connections[address] = conn
	return conn, nil
}

func (c *GRPCRaftClient) RequestVote(peerID, address string, req *proto.RequestVoteRequest) (*proto.RequestVoteReply, error) {
	conn, err := c.getConnection(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return proto.NewRaftClient(conn).RequestVote(ctx, req)
}

func (c *GRPCRaftClient) AppendEntries(peerID, address string, req *proto.AppendEntriesRequest) (*proto.AppendEntriesReply, error) {
	conn, err := c.getConnection(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return proto.NewRaftClient(conn).AppendEntries(ctx, req)
}

// Close tears down every cached connection.
func (c *GRPCRaftClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.connections {
		conn.Close()
	}
}
