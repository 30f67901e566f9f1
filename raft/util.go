// raft/util.go
package raft

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// randomDuration returns a random duration in [min, max).
func randomDuration(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}

	var n uint32
	binary.Read(rand.Reader, binary.BigEndian, &n)
	span := uint32(max - min)
	return min + time.Duration(n%span)
}

// FormatTerm formats a term for logging.
func FormatTerm(term uint64) string {
	return fmt.Sprintf("T%d", term)
}

// FormatIndex formats an index for logging.
func FormatIndex(index uint64) string {
	return fmt.Sprintf("I%d", index)
}

// FormatLogEntry formats a log entry for logging.
func FormatLogEntry(entry LogEntry) string {
	return fmt.Sprintf("%s:%s", FormatTerm(entry.Term), FormatIndex(entry.Index))
}
