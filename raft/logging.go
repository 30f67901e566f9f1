// raft/logging.go
package raft

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger keeps the teacher's specialized per-event log methods but
// backs them with zerolog instead of log.Printf, per the ambient
// logging stack the rest of this module uses.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger returns a console-writer logger tagged with the node's id.
func NewLogger(nodeID string) *Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	zl := zerolog.New(w).With().Timestamp().Str("node", nodeID).Logger()
	return &Logger{zl: zl}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.event(l.zl.Debug(), kv).Msg(msg) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.event(l.zl.Info(), kv).Msg(msg) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.event(l.zl.Warn(), kv).Msg(msg) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.event(l.zl.Error(), kv).Msg(msg) }

// event folds alternating key/value pairs onto a zerolog.Event. A
// malformed (non-string) key is dropped instead of panicking, since
// these are hand-written call sites, not user input.
func (l *Logger) event(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

// Specialized log functions for Raft events

func (l *Logger) LogStateChange(oldRole, newRole Role, term uint64) {
	emoji := map[Role]string{Follower: "👤", Candidate: "🗳️", Leader: "👑"}
	l.zl.Info().
		Str("from", oldRole.String()).
		Str("to", newRole.String()).
		Uint64("term", term).
		Msgf("%s → %s %s", emoji[oldRole], emoji[newRole], newRole)
}

func (l *Logger) LogElectionStart(term uint64) {
	l.zl.Info().Uint64("term", term).Msg("🗳️  starting election")
}

func (l *Logger) LogElectionWon(term uint64, votes, needed int) {
	l.zl.Info().Uint64("term", term).Int("votes", votes).Int("needed", needed).Msg("👑 won election")
}

func (l *Logger) LogElectionLost(term uint64, votes, needed int) {
	l.zl.Info().Uint64("term", term).Int("votes", votes).Int("needed", needed).Msg("lost election")
}

func (l *Logger) LogVoteGranted(candidateID string, term uint64) {
	l.zl.Info().Str("candidate", candidateID).Uint64("term", term).Msg("✅ granted vote")
}

func (l *Logger) LogVoteDenied(candidateID string, term uint64, reason string) {
	l.zl.Info().Str("candidate", candidateID).Uint64("term", term).Str("reason", reason).Msg("denied vote")
}

func (l *Logger) LogHeartbeatSent(term uint64, peerCount int) {
	l.zl.Debug().Uint64("term", term).Int("peers", peerCount).Msg("sent heartbeats")
}

func (l *Logger) LogHeartbeatReceived(leaderID string, term uint64) {
	l.zl.Debug().Str("leader", leaderID).Uint64("term", term).Msg("received heartbeat")
}

func (l *Logger) LogAppendEntries(leaderID string, term uint64, entryCount int) {
	l.zl.Debug().Str("leader", leaderID).Uint64("term", term).Int("entries", entryCount).Msg("append entries")
}

func (l *Logger) LogCommit(index, term uint64) {
	l.zl.Info().Uint64("index", index).Uint64("term", term).Msg("committed entry")
}

func (l *Logger) LogApply(index uint64, term uint64) {
	l.zl.Info().Uint64("index", index).Uint64("term", term).Msg("⚡ applied entry")
}

func (l *Logger) LogStepDown(oldTerm, newTerm uint64) {
	l.zl.Info().Uint64("from_term", oldTerm).Uint64("to_term", newTerm).Msg("⬇️  stepping down")
}

func (l *Logger) LogElectionTimeout() {
	l.zl.Debug().Msg("⏰ election timeout")
}
