// Package raft implements the election and whole-log-replication subset
// of Raft described by this repository's sidecar: a per-process replica
// that participates in leader election over a gRPC peer channel and
// exposes a local "who is leader" query to the application service it
// sits in front of. It implements neither persistence, snapshots, nor
// dynamic membership — see the design notes in DESIGN.md.
package raft

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cong-n-tran/raft-sidecar/proto"

	"google.golang.org/grpc"
)

// Role is a Raft node's current position in the election state machine.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "follower"
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return "unknown"
	}
}

// LogEntry is a single replicated command. Index is 0-based.
type LogEntry struct {
	Term  uint64
	Index uint64
	Op    []byte
}

// StateMachine is the application-service callback the node applies
// committed entries to. Apply must be idempotent: whole-log replication
// means a follower may see the same index applied more than once across
// successive AppendEntries calls.
type StateMachine interface {
	Apply(op []byte) error
}

// Config configures a new Node.
type Config struct {
	ID            string
	Peers         []string
	PeerAddresses map[string]string // peer id -> dial address
	Address       string            // this node's listen address

	// ElectionTimeoutMin/Max bound the randomized election timer
	// (spec default: 1.5s-3.0s). HeartbeatInterval is the leader's
	// AppendEntries cadence (spec default: 1.0s). TickInterval is the
	// scheduler granularity (spec default: 50ms).
	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration
	HeartbeatInterval  time.Duration
	TickInterval       time.Duration

	// RPCDeadline bounds a single outbound RequestVote/AppendEntries
	// call (spec default: 1.0s).
	RPCDeadline time.Duration

	StateMachine StateMachine
}

func (c *Config) setDefaults() {
	if c.ElectionTimeoutMin == 0 {
		c.ElectionTimeoutMin = 1500 * time.Millisecond
	}
	if c.ElectionTimeoutMax == 0 {
		c.ElectionTimeoutMax = 3000 * time.Millisecond
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 1 * time.Second
	}
	if c.TickInterval == 0 {
		c.TickInterval = 50 * time.Millisecond
	}
	if c.RPCDeadline == 0 {
		c.RPCDeadline = 1 * time.Second
	}
}

// Node is a single Raft replica. All fields below the RPC transport are
// guarded by mu; handlers hold it for the full duration of a state
// update and release it before issuing outbound RPCs (spec §5).
type Node struct {
	id            string
	peers         []string
	peerAddresses map[string]string
	address       string

	electionTimeoutMin time.Duration
	electionTimeoutMax time.Duration
	heartbeatInterval  time.Duration
	tickInterval       time.Duration
	rpcDeadline        time.Duration

	stateMachine StateMachine
	rpcClient    RPCClient

	mu               sync.Mutex
	currentTerm      uint64
	votedFor         string
	log              []LogEntry
	commitIndex      int64 // -1 = nothing committed yet
	role             Role
	votesReceived    map[string]struct{}
	leaderID         string
	electionDeadline time.Time
	leaderCancel     context.CancelFunc

	stopOnce sync.Once
	stopCh   chan struct{}

	grpcServer *grpc.Server
	listener   net.Listener

	logger  *Logger
	metrics *Metrics
}

// NewNode constructs a Node. It does not start any background activity
// or network listener; call Start for that.
func NewNode(cfg Config) *Node {
	cfg.setDefaults()

	n := &Node{
		id:                  cfg.ID,
		peers:               cfg.Peers,
		peerAddresses:       cfg.PeerAddresses,
		address:             cfg.Address,
		electionTimeoutMin:  cfg.ElectionTimeoutMin,
		electionTimeoutMax:  cfg.ElectionTimeoutMax,
		heartbeatInterval:   cfg.HeartbeatInterval,
		tickInterval:        cfg.TickInterval,
		rpcDeadline:         cfg.RPCDeadline,
		stateMachine:        cfg.StateMachine,
		commitIndex:         -1,
		role:                Follower,
		votesReceived:       make(map[string]struct{}),
		stopCh:              make(chan struct{}),
		logger:              NewLogger(cfg.ID),
		metrics:             NewMetrics(),
		rpcClient:           NewGRPCRaftClient(cfg.RPCDeadline),
	}

	return n
}

// Start opens the node's gRPC listener and begins the election-timer
// driver. It returns once the listener is bound.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.address)
	if err != nil {
		return fmt.Errorf("raft: failed to listen on %s: %w", n.address, err)
	}
	n.listener = lis

	n.grpcServer = grpc.NewServer()
	proto.RegisterRaftServer(n.grpcServer, &raftServer{node: n})

	go func() {
		if err := n.grpcServer.Serve(lis); err != nil {
			n.logger.Error("grpc server stopped", "err", err)
		}
	}()

	n.mu.Lock()
	n.resetElectionDeadlineLocked()
	n.mu.Unlock()

	go n.electionTimerLoop()

	n.logger.Info("raft node started", "address", n.address, "peers", len(n.peers))
	return nil
}

// Shutdown tears down background activity and the RPC listener. It is a
// one-shot operation; subsequent calls are no-ops.
func (n *Node) Shutdown() {
	n.stopOnce.Do(func() {
		close(n.stopCh)
		n.mu.Lock()
		if n.leaderCancel != nil {
			n.leaderCancel()
		}
		n.mu.Unlock()
		if n.grpcServer != nil {
			n.grpcServer.GracefulStop()
		}
	})
}

// GetState returns the node's current term and whether it is Leader.
func (n *Node) GetState() (uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentTerm, n.role == Leader
}

// GetLeader returns the best-known leader id, or "" if none is known
// (spec C3: "am I leader? / who is leader?").
func (n *Node) GetLeader() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.leaderID
}

func (n *Node) role_() Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

// electionTimerLoop is the dedicated election-timer driver (spec §5):
// it wakes at tickInterval granularity and starts an election whenever
// the deadline has passed and the node isn't already leading.
func (n *Node) electionTimerLoop() {
	ticker := time.NewTicker(n.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stopCh:
			return
		case <-ticker.C:
			n.tick()
		}
	}
}

func (n *Node) tick() {
	n.mu.Lock()
	expired := n.role != Leader && !time.Now().Before(n.electionDeadline)
	n.mu.Unlock()

	if expired {
		n.metrics.heartbeatsMissed.Inc()
		n.startElection()
	}
}

// resetElectionDeadlineLocked redraws the randomized election timeout.
// Caller must hold mu.
func (n *Node) resetElectionDeadlineLocked() {
	n.electionDeadline = time.Now().Add(randomDuration(n.electionTimeoutMin, n.electionTimeoutMax))
}

// Propose appends op to the leader's log. It is the only way the log
// grows: spec.md models a replicated log and an Apply callback but
// leaves the write path implicit, so this fills that gap the way the
// teacher's own placeholder (a buffered "new entry" signal feeding a
// replicateLog step) implied it would be filled. Because this design
// uses whole-log replication with no quorum-gated commit protocol
// (spec §4.1's leader operation ignores AppendEntries replies besides
// term step-down), the leader commits optimistically: it applies the
// entry to its own state machine immediately, and followers converge on
// the same commitIndex the next time they receive AppendEntries.
func (n *Node) Propose(op []byte) (index uint64, term uint64, isLeader bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.role != Leader {
		return 0, n.currentTerm, false
	}

	idx := uint64(len(n.log))
	n.log = append(n.log, LogEntry{Term: n.currentTerm, Index: idx, Op: op})
	n.commitIndex = int64(idx)
	term = n.currentTerm

	if n.stateMachine != nil {
		if err := n.stateMachine.Apply(op); err != nil {
			n.logger.Error("apply failed", "index", idx, "err", err)
		}
	}
	n.logger.LogApply(idx, term)

	return idx, term, true
}

// Metrics exposes the node's private Prometheus registry for scraping.
func (n *Node) Metrics() *Metrics {
	return n.metrics
}
