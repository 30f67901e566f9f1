package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WAL is the durable log backing Store. Each record is one Command this
// sidecar actually applies — the same shape Apply decodes off a Raft log
// entry — appended as a newline-delimited JSON line. At this scale, a
// handful of ride and driver-availability keys, a length-prefixed binary
// frame buys nothing a line-oriented JSON log doesn't already give for
// free, and it keeps wal.log inspectable by hand.
type WAL struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// walRecord is one logged command plus the time it was applied.
type walRecord struct {
	Timestamp int64   `json:"ts"`
	Command   Command `json:"cmd"`
}

func NewWAL(dirPath string) (*WAL, error) {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	walPath := filepath.Join(dirPath, "wal.log")

	file, err := os.OpenFile(walPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	return &WAL{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Write appends cmd as one durable record.
func (w *WAL) Write(cmd Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := walRecord{Timestamp: time.Now().UnixNano(), Command: cmd}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode WAL record: %w", err)
	}

	if _, err := w.writer.Write(b); err != nil {
		return fmt.Errorf("failed to write WAL record: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write WAL record: %w", err)
	}

	// NOTE: we avoid calling file.Sync() on every write because an
	// fsync per-Put is extremely expensive (especially on Windows).
	// Flushing the buffered writer is sufficient for tests and typical
	// throughput.
	return w.writer.Flush()
}

// ReadAll returns every command logged so far, in write order.
func (w *WAL) ReadAll() ([]Command, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to seek to beginning: %w", err)
	}

	scanner := bufio.NewScanner(w.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var commands []Command
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec walRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode WAL record: %w", err)
		}
		commands = append(commands, rec.Command)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read WAL: %w", err)
	}

	return commands, nil
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Close()
}
