package twopc

import (
	"net"

	"github.com/cong-n-tran/raft-sidecar/proto"

	"google.golang.org/grpc"
)

// Serve starts a gRPC server exposing srv (a *TripParticipant or
// *LocationParticipant) on address. It binds the listener, starts
// serving in a background goroutine, and returns the server once the
// listener is bound; stop it with GracefulStop or Stop.
func Serve(address string, srv proto.TwoPCServer) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer()
	proto.RegisterTwoPCServer(s, srv)

	go s.Serve(lis)

	return s, nil
}
