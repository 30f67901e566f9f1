package twopc

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger mirrors raft.Logger's shape: specialized per-event methods
// backed by zerolog, tagged with the coordinator or participant name.
type Logger struct {
	zl zerolog.Logger
}

func NewLogger(name string) *Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	zl := zerolog.New(w).With().Timestamp().Str("participant", name).Logger()
	return &Logger{zl: zl}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.event(l.zl.Debug(), kv).Msg(msg) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.event(l.zl.Error(), kv).Msg(msg) }

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

func (l *Logger) LogTransactionStart(txID, rideID string) {
	l.zl.Info().Str("tx", txID).Str("ride", rideID).Msg("starting 2PC transaction")
}

func (l *Logger) LogVoteFailed(txID, participant string, err error) {
	l.zl.Info().Str("tx", txID).Str("participant", participant).Err(err).Msg("vote request failed")
}

func (l *Logger) LogVoteRefused(txID, participant string) {
	l.zl.Info().Str("tx", txID).Str("participant", participant).Msg("vote refused")
}

func (l *Logger) LogTransactionCommitted(txID, rideID string) {
	l.zl.Info().Str("tx", txID).Str("ride", rideID).Msg("✅ transaction committed")
}

func (l *Logger) LogTransactionAborted(txID, rideID string) {
	l.zl.Info().Str("tx", txID).Str("ride", rideID).Msg("transaction aborted")
}

func (l *Logger) LogVoteCommit(txID, rideID string) {
	l.zl.Info().Str("tx", txID).Str("ride", rideID).Msg("voting commit")
}

func (l *Logger) LogVoteAbort(txID, rideID, reason string) {
	l.zl.Info().Str("tx", txID).Str("ride", rideID).Str("reason", reason).Msg("voting abort")
}

func (l *Logger) LogCommitApplied(txID, rideID string) {
	l.zl.Info().Str("tx", txID).Str("ride", rideID).Msg("applied commit")
}

func (l *Logger) LogAbortApplied(txID string) {
	l.zl.Info().Str("tx", txID).Msg("discarded pending state")
}
