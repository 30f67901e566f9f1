// Package store is the local, write-ahead-logged key-value store behind
// both the Raft state machine and the 2PC participants. It is the
// sidecar-scale descendant of a larger LSM engine: no memtable flush, no
// SSTables, no compaction — just a WAL and an in-memory map, which is all
// either caller needs at this scale.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is a durable, mutex-guarded key-value store.
type Store struct {
	data map[string][]byte
	wal  *WAL
	mu   sync.RWMutex
}

// New creates a store rooted at dataDir, replaying its WAL if one exists.
func New(dataDir string) (*Store, error) {
	wal, err := NewWAL(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAL: %w", err)
	}

	s := &Store{
		data: make(map[string][]byte),
		wal:  wal,
	}

	if err := s.recover(); err != nil {
		return nil, fmt.Errorf("failed to recover from WAL: %w", err)
	}

	return s, nil
}

func (s *Store) Put(key string, value []byte) error {
	if err := s.wal.Write(Command{Type: "PUT", Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to write to WAL: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	s.data[key] = valueCopy

	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func (s *Store) Delete(key string) error {
	if err := s.wal.Write(Command{Type: "DELETE", Key: key}); err != nil {
		return fmt.Errorf("failed to write delete to WAL: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)

	return nil
}

func (s *Store) recover() error {
	commands, err := s.wal.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read WAL: %w", err)
	}

	for _, cmd := range commands {
		switch cmd.Type {
		case "PUT":
			s.data[cmd.Key] = cmd.Value
		case "DELETE":
			delete(s.data, cmd.Key)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.wal.Close()
}

// Command is both the payload of each WAL record (stored alongside a
// timestamp) and the serialized form of a Raft log entry's op, applied by
// Apply below — Put/Delete log the same shape they're handed as an Apply
// op, so there is exactly one encoding for "a write" in this package.
type Command struct {
	Type  string `json:"type"` // "PUT" or "DELETE"
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
}

// Apply implements raft.StateMachine: it decodes and applies one
// committed log entry. It must be idempotent, since whole-log
// replication can replay the same index more than once — Put and
// Delete already are.
func (s *Store) Apply(op []byte) error {
	if len(op) == 0 {
		return nil
	}

	var cmd Command
	if err := json.Unmarshal(op, &cmd); err != nil {
		return fmt.Errorf("failed to decode command: %w", err)
	}

	switch cmd.Type {
	case "PUT":
		return s.Put(cmd.Key, cmd.Value)
	case "DELETE":
		return s.Delete(cmd.Key)
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"num_keys": len(s.data),
	}
}

// Ride is the record a trip participant checks and mutates during 2PC.
type Ride struct {
	RideID   string `json:"rideId"`
	DriverID string `json:"driverId"`
	Status   string `json:"status"` // "ongoing" | "completed"
}

const (
	RideStatusOngoing   = "ongoing"
	RideStatusCompleted = "completed"
)

func rideKey(rideID string) string { return "ride:" + rideID }

// PutRide seeds or overwrites a ride record (test/setup helper; the
// gateway that would normally own ride lifecycle is out of scope here).
func (s *Store) PutRide(ride Ride) error {
	b, err := json.Marshal(ride)
	if err != nil {
		return fmt.Errorf("failed to marshal ride: %w", err)
	}
	return s.Put(rideKey(ride.RideID), b)
}

// GetRide returns the ride record for rideID, or ErrKeyNotFound.
func (s *Store) GetRide(rideID string) (Ride, error) {
	b, err := s.Get(rideKey(rideID))
	if err != nil {
		return Ride{}, err
	}
	var ride Ride
	if err := json.Unmarshal(b, &ride); err != nil {
		return Ride{}, fmt.Errorf("failed to unmarshal ride %s: %w", rideID, err)
	}
	return ride, nil
}

// SetRideStatus overwrites just the status field of an existing ride.
func (s *Store) SetRideStatus(rideID, status string) error {
	ride, err := s.GetRide(rideID)
	if err != nil {
		return err
	}
	ride.Status = status
	return s.PutRide(ride)
}

func driverAvailableKey(driverID string) string { return "driver:available:" + driverID }

// MarkDriverAvailable records driverID as free to be matched.
func (s *Store) MarkDriverAvailable(driverID string) error {
	return s.Put(driverAvailableKey(driverID), []byte{1})
}

// MarkDriverUnavailable removes driverID from the available set.
func (s *Store) MarkDriverUnavailable(driverID string) error {
	return s.Delete(driverAvailableKey(driverID))
}

// IsDriverAvailable reports whether driverID is currently available.
func (s *Store) IsDriverAvailable(driverID string) bool {
	_, err := s.Get(driverAvailableKey(driverID))
	return err == nil
}
