// Package twopc implements the two-phase-commit coordinator and
// participant roles used to atomically mark a ride completed while
// freeing the driver held at the location service (spec C2).
package twopc

import (
	"context"
	"sync"

	"github.com/cong-n-tran/raft-sidecar/proto"
	"github.com/cong-n-tran/raft-sidecar/store"
)

// Payload is the business data a participant needs to vote and, later,
// to apply its local write.
type Payload struct {
	RideID   string
	DriverID string
}

// pendingTable is a per-participant record of transactions that have
// voted commit and are awaiting the coordinator's decision.
type pendingTable struct {
	mu    sync.Mutex
	byTx  map[string]Payload
}

func newPendingTable() *pendingTable {
	return &pendingTable{byTx: make(map[string]Payload)}
}

func (p *pendingTable) put(txID string, payload Payload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byTx[txID] = payload
}

// take returns and removes the pending entry for txID; ok is false if
// no entry was present (a missing txId is not an error — see
// GlobalCommit/GlobalAbort idempotence, spec §4.2).
func (p *pendingTable) take(txID string) (Payload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, ok := p.byTx[txID]
	delete(p.byTx, txID)
	return payload, ok
}

// TripParticipant backs the trip side of 2PC: it admits a vote only
// when the ride exists and is still ongoing, and on commit flips the
// ride's status to completed.
type TripParticipant struct {
	proto.UnimplementedTwoPCServer
	name    string
	store   *store.Store
	pending *pendingTable
	logger  *Logger
	metrics *Metrics
}

func NewTripParticipant(name string, s *store.Store) *TripParticipant {
	return &TripParticipant{
		name:    name,
		store:   s,
		pending: newPendingTable(),
		logger:  NewLogger(name),
		metrics: NewMetrics(name),
	}
}

func (p *TripParticipant) VoteRequest(ctx context.Context, args *proto.VoteRequestArgs) (*proto.VoteReply, error) {
	ride, err := p.store.GetRide(args.RideID)
	admissible := err == nil && ride.Status == store.RideStatusOngoing

	if admissible {
		p.pending.put(args.TransactionID, Payload{RideID: args.RideID, DriverID: args.DriverID})
		p.logger.LogVoteCommit(args.TransactionID, args.RideID)
	} else {
		p.logger.LogVoteAbort(args.TransactionID, args.RideID, "ride missing or not ongoing")
	}
	p.metrics.votesRequested.Inc()

	return &proto.VoteReply{VoteCommit: admissible}, nil
}

func (p *TripParticipant) GlobalCommit(ctx context.Context, args *proto.GlobalCommitArgs) (*proto.GlobalCommitReply, error) {
	if payload, ok := p.pending.take(args.TransactionID); ok {
		if err := p.store.SetRideStatus(payload.RideID, store.RideStatusCompleted); err != nil {
			p.logger.Error("commit write failed", "tx", args.TransactionID, "err", err)
		} else {
			p.logger.LogCommitApplied(args.TransactionID, payload.RideID)
			p.metrics.commitsApplied.Inc()
		}
	} else {
		p.logger.Debug("global commit for unknown transaction (idempotent no-op)", "tx", args.TransactionID)
	}
	return &proto.GlobalCommitReply{}, nil
}

func (p *TripParticipant) GlobalAbort(ctx context.Context, args *proto.GlobalAbortArgs) (*proto.GlobalAbortReply, error) {
	if _, ok := p.pending.take(args.TransactionID); ok {
		p.logger.LogAbortApplied(args.TransactionID)
		p.metrics.abortsApplied.Inc()
	}
	return &proto.GlobalAbortReply{}, nil
}

// LocationParticipant backs the location side of 2PC: it admits a vote
// only when a driver id was supplied, and on commit marks that driver
// available again.
type LocationParticipant struct {
	proto.UnimplementedTwoPCServer
	name    string
	store   *store.Store
	pending *pendingTable
	logger  *Logger
	metrics *Metrics
}

func NewLocationParticipant(name string, s *store.Store) *LocationParticipant {
	return &LocationParticipant{
		name:    name,
		store:   s,
		pending: newPendingTable(),
		logger:  NewLogger(name),
		metrics: NewMetrics(name),
	}
}

func (p *LocationParticipant) VoteRequest(ctx context.Context, args *proto.VoteRequestArgs) (*proto.VoteReply, error) {
	admissible := args.DriverID != ""

	if admissible {
		p.pending.put(args.TransactionID, Payload{RideID: args.RideID, DriverID: args.DriverID})
		p.logger.LogVoteCommit(args.TransactionID, args.RideID)
	} else {
		p.logger.LogVoteAbort(args.TransactionID, args.RideID, "no driver id supplied")
	}
	p.metrics.votesRequested.Inc()

	return &proto.VoteReply{VoteCommit: admissible}, nil
}

func (p *LocationParticipant) GlobalCommit(ctx context.Context, args *proto.GlobalCommitArgs) (*proto.GlobalCommitReply, error) {
	if payload, ok := p.pending.take(args.TransactionID); ok {
		if err := p.store.MarkDriverAvailable(payload.DriverID); err != nil {
			p.logger.Error("commit write failed", "tx", args.TransactionID, "err", err)
		} else {
			p.logger.LogCommitApplied(args.TransactionID, payload.RideID)
			p.metrics.commitsApplied.Inc()
		}
	} else {
		p.logger.Debug("global commit for unknown transaction (idempotent no-op)", "tx", args.TransactionID)
	}
	return &proto.GlobalCommitReply{}, nil
}

func (p *LocationParticipant) GlobalAbort(ctx context.Context, args *proto.GlobalAbortArgs) (*proto.GlobalAbortReply, error) {
	if _, ok := p.pending.take(args.TransactionID); ok {
		p.logger.LogAbortApplied(args.TransactionID)
		p.metrics.abortsApplied.Inc()
	}
	return &proto.GlobalAbortReply{}, nil
}
