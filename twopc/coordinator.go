package twopc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cong-n-tran/raft-sidecar/proto"
	"github.com/cong-n-tran/raft-sidecar/store"

	"github.com/google/uuid"
)

// ErrMissingDriver is a client-visible rejection: the ride has no
// driver assigned, so CompleteTrip cannot even start a transaction
// (spec §4.2 step 2, §7 "2PC caller errors").
var ErrMissingDriver = errors.New("twopc: ride has no assigned driver")

// ErrAborted is the server-visible failure surfaced when any
// participant votes abort, fails to respond, or the coordinator's
// per-call deadline is exceeded (spec §7 "2PC abort").
var ErrAborted = errors.New("twopc: transaction aborted")

// ParticipantEndpoint names one 2PC participant dialed over gRPC. The
// coordinator's own trip participant is reached the same way as any
// other, by listing its own listen address — a loopback RPC per
// spec §4.2 step 3, rather than a special-cased in-process call.
type ParticipantEndpoint struct {
	Name    string
	Address string
}

// Coordinator drives CompleteTrip for the trip subsystem.
type Coordinator struct {
	participants []ParticipantEndpoint
	rpcDeadline  time.Duration
	client       RPCClient
	tripStore    *store.Store

	logger  *Logger
	metrics *Metrics
}

// Config configures a new Coordinator.
type Config struct {
	Participants []ParticipantEndpoint
	RPCDeadline  time.Duration // spec default: 2.0s
	TripStore    *store.Store
}

func (c *Config) setDefaults() {
	if c.RPCDeadline == 0 {
		c.RPCDeadline = 2 * time.Second
	}
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	cfg.setDefaults()
	return &Coordinator{
		participants: cfg.Participants,
		rpcDeadline:  cfg.RPCDeadline,
		client:       NewGRPCClient(cfg.RPCDeadline),
		tripStore:    cfg.TripStore,
		logger:       NewLogger("coordinator"),
		metrics:      NewMetrics("coordinator"),
	}
}

// CompleteTrip runs one 2PC round to atomically mark rideID completed
// while freeing its driver (spec §4.2).
func (c *Coordinator) CompleteTrip(ctx context.Context, rideID string) error {
	ride, err := c.tripStore.GetRide(rideID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingDriver, err)
	}
	if ride.DriverID == "" {
		return ErrMissingDriver
	}

	txID := uuid.NewString()
	c.logger.LogTransactionStart(txID, rideID)
	c.metrics.transactionsStarted.Inc()

	voteArgs := &proto.VoteRequestArgs{
		TransactionID: txID,
		RideID:        rideID,
		DriverID:      ride.DriverID,
	}

	// Sequential broadcast per spec §4.2 step 3 — unlike Raft's RequestVote
	// fan-out, the vote phase here is ordered, not parallel.
	allCommit := true
	for _, p := range c.participants {
		reply, err := c.client.VoteRequest(ctx, p.Address, voteArgs)
		if err != nil {
			c.logger.LogVoteFailed(txID, p.Name, err)
			allCommit = false
			break
		}
		if !reply.VoteCommit {
			c.logger.LogVoteRefused(txID, p.Name)
			allCommit = false
			break
		}
	}

	if allCommit {
		c.broadcastCommit(ctx, txID, rideID, ride.DriverID)
		c.logger.LogTransactionCommitted(txID, rideID)
		c.metrics.transactionsCommitted.Inc()
		return nil
	}

	c.broadcastAbort(ctx, txID)
	c.logger.LogTransactionAborted(txID, rideID)
	c.metrics.transactionsAborted.Inc()
	return ErrAborted
}

func (c *Coordinator) broadcastCommit(ctx context.Context, txID, rideID, driverID string) {
	args := &proto.GlobalCommitArgs{TransactionID: txID, RideID: rideID, DriverID: driverID}
	for _, p := range c.participants {
		if _, err := c.client.GlobalCommit(ctx, p.Address, args); err != nil {
			c.logger.Error("global commit delivery failed", "tx", txID, "participant", p.Name, "err", err)
		}
	}
}

func (c *Coordinator) broadcastAbort(ctx context.Context, txID string) {
	args := &proto.GlobalAbortArgs{TransactionID: txID}
	for _, p := range c.participants {
		if _, err := c.client.GlobalAbort(ctx, p.Address, args); err != nil {
			c.logger.Error("global abort delivery failed", "tx", txID, "participant", p.Name, "err", err)
		}
	}
}
