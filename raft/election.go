// raft/election.go
package raft

import (
	"context"
	"time"

	"github.com/cong-n-tran/raft-sidecar/proto"
)

// startElection converts the node to Candidate, bumps its term, votes
// for itself, and fans RequestVote out to every peer. Replies are
// collected with each node's RPC deadline bounding the whole round; a
// node with no peers wins immediately (single-node operation per
// spec.md).
func (n *Node) startElection() {
	n.mu.Lock()
	oldRole := n.role
	n.role = Candidate
	n.currentTerm++
	n.votedFor = n.id
	n.votesReceived = map[string]struct{}{n.id: {}}
	n.leaderID = ""
	term := n.currentTerm
	n.resetElectionDeadlineLocked()
	n.mu.Unlock()

	n.logger.LogStateChange(oldRole, Candidate, term)
	n.logger.LogElectionStart(term)

	votesNeeded := (len(n.peers)+1)/2 + 1
	n.metrics.electionsStarted.Inc()

	if len(n.peers) == 0 {
		n.logger.LogElectionWon(term, 1, votesNeeded)
		n.becomeLeader(term)
		return
	}

	type result struct {
		peer  string
		reply *proto.RequestVoteReply
		err   error
	}
	resultCh := make(chan result, len(n.peers))

	for _, peer := range n.peers {
		go func(peerID string) {
			reply, err := n.rpcClient.RequestVote(peerID, n.peerAddresses[peerID], &proto.RequestVoteRequest{
				Term:        term,
				CandidateID: n.id,
			})
			resultCh <- result{peer: peerID, reply: reply, err: err}
		}(peer)
	}

	for i := 0; i < len(n.peers); i++ {
		select {
		case <-n.stopCh:
			return
		case res := <-resultCh:
			if res.err != nil {
				n.logger.Debug("requestvote failed", "peer", res.peer, "err", res.err)
				continue
			}
			if res.reply.Term > term {
				n.stepDown(res.reply.Term)
				return
			}
			if !res.reply.VoteGranted {
				continue
			}

			n.mu.Lock()
			if n.role != Candidate || n.currentTerm != term {
				n.mu.Unlock()
				return
			}
			n.votesReceived[res.peer] = struct{}{}
			votes := len(n.votesReceived)
			n.mu.Unlock()

			n.metrics.votesGranted.Inc()

			if votes >= votesNeeded {
				n.logger.LogElectionWon(term, votes, votesNeeded)
				n.becomeLeader(term)
				return
			}
		}
	}

	n.mu.Lock()
	votes := len(n.votesReceived)
	n.mu.Unlock()
	n.logger.LogElectionLost(term, votes, votesNeeded)
}

// becomeLeader transitions the node to Leader and starts its dedicated
// heartbeat driver. It is a no-op if the node's term or role moved on
// while the election was in flight.
func (n *Node) becomeLeader(term uint64) {
	n.mu.Lock()
	if n.currentTerm != term || n.role != Candidate {
		n.mu.Unlock()
		return
	}

	oldRole := n.role
	n.role = Leader
	n.leaderID = n.id
	n.logger.LogStateChange(oldRole, Leader, term)
	n.metrics.role.Set(float64(Leader))

	ctx, cancel := context.WithCancel(context.Background())
	n.leaderCancel = cancel
	n.mu.Unlock()

	go n.heartbeatLoop(ctx)
}

// stepDown converts the node back to Follower on discovering a higher
// term, per the Raft invariant that no node acts above the highest term
// it has observed.
func (n *Node) stepDown(term uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if term <= n.currentTerm {
		return
	}

	oldTerm := n.currentTerm
	oldRole := n.role
	n.logger.LogStepDown(oldTerm, term)

	n.currentTerm = term
	n.votedFor = ""
	n.role = Follower
	n.metrics.role.Set(float64(Follower))
	n.metrics.term.Set(float64(term))

	if oldRole != Follower {
		n.logger.LogStateChange(oldRole, Follower, term)
	}
	if n.leaderCancel != nil {
		n.leaderCancel()
		n.leaderCancel = nil
	}
	n.resetElectionDeadlineLocked()
}

// heartbeatLoop is the dedicated leader heartbeat driver (spec §5): it
// runs only while this node believes itself to be leader for the term
// it was started under, and stops as soon as ctx is cancelled by a
// step-down.
func (n *Node) heartbeatLoop(ctx context.Context) {
	n.sendHeartbeats()

	ticker := time.NewTicker(n.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.stopCh:
			return
		case <-ticker.C:
			n.sendHeartbeats()
		}
	}
}

// sendHeartbeats broadcasts the leader's current term, full log, and
// commitIndex to every peer (spec §4.1: whole-log replication, no
// PrevLogIndex/PrevLogTerm). Replies are only inspected for a higher
// term; a stale or failed RPC is otherwise ignored, matching spec's
// "leader operation: replies are ignored except for term step-down".
func (n *Node) sendHeartbeats() {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return
	}
	term := n.currentTerm
	commitIndex := n.commitIndex
	entries := make([]*proto.LogEntry, len(n.log))
	for i, e := range n.log {
		entries[i] = &proto.LogEntry{Op: e.Op, Term: e.Term, Index: e.Index}
	}
	peers := append([]string(nil), n.peers...)
	n.mu.Unlock()

	n.logger.LogHeartbeatSent(term, len(peers))
	n.metrics.heartbeatsSent.Inc()

	var ci uint64
	if commitIndex >= 0 {
		ci = uint64(commitIndex)
	}

	for _, peer := range peers {
		go func(peerID string) {
			reply, err := n.rpcClient.AppendEntries(peerID, n.peerAddresses[peerID], &proto.AppendEntriesRequest{
				Term:        term,
				LeaderID:    n.id,
				Entries:     entries,
				CommitIndex: ci,
			})
			if err != nil {
				return
			}
			if reply.Term > term {
				n.stepDown(reply.Term)
			}
		}(peer)
	}
}

// HandleRequestVote implements the RequestVote RPC contract (spec
// §4.1). Unlike canonical Raft, it grants a vote without comparing log
// recency: this design's whole-log replication and its explicit
// omission of LastLogIndex/LastLogTerm on the wire (spec §6, §9) make
// a log-up-to-date check both impossible and unnecessary.
func (n *Node) HandleRequestVote(req *proto.RequestVoteRequest) *proto.RequestVoteReply {
	n.mu.Lock()

	if req.Term < n.currentTerm {
		term := n.currentTerm
		n.mu.Unlock()
		return &proto.RequestVoteReply{Term: term, VoteGranted: false}
	}

	if req.Term > n.currentTerm {
		oldRole := n.role
		n.currentTerm = req.Term
		n.votedFor = ""
		n.role = Follower
		n.metrics.term.Set(float64(req.Term))
		if oldRole != Follower {
			n.logger.LogStateChange(oldRole, Follower, req.Term)
		}
		if n.leaderCancel != nil {
			n.leaderCancel()
			n.leaderCancel = nil
		}
	}

	granted := n.votedFor == "" || n.votedFor == req.CandidateID
	if granted {
		n.votedFor = req.CandidateID
		n.logger.LogVoteGranted(req.CandidateID, req.Term)
	} else {
		n.logger.LogVoteDenied(req.CandidateID, req.Term, "already voted for "+n.votedFor)
	}

	term := n.currentTerm
	if granted {
		n.resetElectionDeadlineLocked()
	}
	n.mu.Unlock()

	return &proto.RequestVoteReply{Term: term, VoteGranted: granted}
}

// HandleAppendEntries implements the AppendEntries RPC contract (spec
// §4.1): the follower replaces its entire log with the leader's,
// applies any newly committed entries, and resets its election
// deadline.
func (n *Node) HandleAppendEntries(req *proto.AppendEntriesRequest) *proto.AppendEntriesReply {
	n.mu.Lock()

	if req.Term < n.currentTerm {
		term := n.currentTerm
		n.mu.Unlock()
		return &proto.AppendEntriesReply{Term: term, Success: false}
	}

	if req.Term > n.currentTerm {
		n.currentTerm = req.Term
		n.metrics.term.Set(float64(req.Term))
	}

	oldRole := n.role
	n.role = Follower
	n.leaderID = req.LeaderID
	n.votedFor = ""
	if oldRole != Follower {
		n.logger.LogStateChange(oldRole, Follower, req.Term)
		n.metrics.role.Set(float64(Follower))
	}
	if n.leaderCancel != nil {
		n.leaderCancel()
		n.leaderCancel = nil
	}

	if len(req.Entries) == 0 {
		n.logger.LogHeartbeatReceived(req.LeaderID, req.Term)
	} else {
		n.logger.LogAppendEntries(req.LeaderID, req.Term, len(req.Entries))
	}

	n.log = make([]LogEntry, len(req.Entries))
	for i, e := range req.Entries {
		n.log[i] = LogEntry{Op: e.Op, Term: e.Term, Index: e.Index}
	}

	oldCommit := n.commitIndex
	if len(n.log) > 0 {
		newCommit := int64(min(uint64(len(n.log)-1), req.CommitIndex))
		if newCommit > oldCommit {
			start := oldCommit + 1
			if start < 0 {
				start = 0
			}
			for idx := start; idx <= newCommit; idx++ {
				if n.stateMachine != nil {
					if err := n.stateMachine.Apply(n.log[idx].Op); err != nil {
						n.logger.Error("apply failed", "index", idx, "err", err)
					}
				}
				n.logger.LogApply(uint64(idx), n.log[idx].Term)
			}
			n.commitIndex = newCommit
			n.logger.LogCommit(uint64(newCommit), req.Term)
		}
	}

	term := n.currentTerm
	n.resetElectionDeadlineLocked()
	n.mu.Unlock()

	return &proto.AppendEntriesReply{Term: term, Success: true}
}
