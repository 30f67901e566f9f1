package twopc

import (
	"context"
	"sync"
	"time"

	"github.com/cong-n-tran/raft-sidecar/proto"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// RPCClient is the outbound transport the coordinator uses to reach
// participants, including its own loopback endpoint.
type RPCClient interface {
	VoteRequest(ctx context.Context, address string, args *proto.VoteRequestArgs) (*proto.VoteReply, error)
	GlobalCommit(ctx context.Context, address string, args *proto.GlobalCommitArgs) (*proto.GlobalCommitReply, error)
	GlobalAbort(ctx context.Context, address string, args *proto.GlobalAbortArgs) (*proto.GlobalAbortReply, error)
}

// GRPCClient dials and caches one connection per participant address,
// bounding every call with a fixed per-call deadline (spec default: 2.0s).
type GRPCClient struct {
	mu          sync.Mutex
	connections map[string]*grpc.ClientConn
	timeout     time.Duration
}

func NewGRPCClient(timeout time.Duration) *GRPCClient {
	return &GRPCClient{
		connections: make(map[string]*grpc.ClientConn),
		timeout:     timeout,
	}
}

func (c *GRPCClient) getConnection(address string) (*grpc.ClientConn, error) {
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

func (c *GRPCClient) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GRPCClient) VoteRequest(ctx context.Context, address string, args *proto.VoteRequestArgs) (*proto.VoteReply, error) {
	conn, err := c.getConnection(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	return proto.NewTwoPCClient(conn).VoteRequest(ctx, args)
}

func (c *GRPCClient) GlobalCommit(ctx context.Context, address string, args *proto.GlobalCommitArgs) (*proto.GlobalCommitReply, error) {
	conn, err := c.getConnection(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	return proto.NewTwoPCClient(conn).GlobalCommit(ctx, args)
}

func (c *GRPCClient) GlobalAbort(ctx context.Context, address string, args *proto.GlobalAbortArgs) (*proto.GlobalAbortReply, error) {
	conn, err := c.getConnection(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	return proto.NewTwoPCClient(conn).GlobalAbort(ctx, args)
}

// Close tears down every cached connection.
func (c *GRPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.connections {
		conn.Close()
	}
}
