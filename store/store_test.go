package store

import (
	"encoding/json"
	"testing"
)

func TestApplyPutAndDelete(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	putOp, _ := json.Marshal(Command{Type: "PUT", Key: "k", Value: []byte("v")})
	if err := s.Apply(putOp); err != nil {
		t.Fatalf("apply put failed: %v", err)
	}
	if v, err := s.Get("k"); err != nil || string(v) != "v" {
		t.Errorf("expected 'v', got %q (err=%v)", v, err)
	}

	// Applying the same entry twice must be a no-op, since whole-log
	// replication can replay an index more than once.
	if err := s.Apply(putOp); err != nil {
		t.Fatalf("re-applying put failed: %v", err)
	}

	delOp, _ := json.Marshal(Command{Type: "DELETE", Key: "k"})
	if err := s.Apply(delOp); err != nil {
		t.Fatalf("apply delete failed: %v", err)
	}
	if _, err := s.Get("k"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestStoreBasicOperations(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if err := s.Put("key1", []byte("value1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	value, err := s.Get("key1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(value) != "value1" {
		t.Errorf("expected 'value1', got '%s'", value)
	}

	if err := s.Delete("key1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := s.Get("key1"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got: %v", err)
	}
}

func TestStoreRecoversFromWAL(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Put("key1", []byte("value1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	s.Close()

	s2, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s2.Close()

	value, err := s2.Get("key1")
	if err != nil {
		t.Fatalf("get after recovery failed: %v", err)
	}
	if string(value) != "value1" {
		t.Errorf("expected 'value1' after recovery, got '%s'", value)
	}
}

func TestRideLifecycle(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	ride := Ride{RideID: "r1", DriverID: "d1", Status: RideStatusOngoing}
	if err := s.PutRide(ride); err != nil {
		t.Fatalf("put ride failed: %v", err)
	}

	got, err := s.GetRide("r1")
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if got.DriverID != "d1" || got.Status != RideStatusOngoing {
		t.Errorf("unexpected ride state: %+v", got)
	}

	if err := s.SetRideStatus("r1", RideStatusCompleted); err != nil {
		t.Fatalf("set ride status failed: %v", err)
	}

	got, err = s.GetRide("r1")
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if got.Status != RideStatusCompleted {
		t.Errorf("expected completed status, got %s", got.Status)
	}
}

func TestDriverAvailability(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if s.IsDriverAvailable("d1") {
		t.Error("driver should not be available before being marked")
	}

	if err := s.MarkDriverAvailable("d1"); err != nil {
		t.Fatalf("mark available failed: %v", err)
	}
	if !s.IsDriverAvailable("d1") {
		t.Error("driver should be available after being marked")
	}

	if err := s.MarkDriverUnavailable("d1"); err != nil {
		t.Fatalf("mark unavailable failed: %v", err)
	}
	if s.IsDriverAvailable("d1") {
		t.Error("driver should not be available after being marked unavailable")
	}
}
