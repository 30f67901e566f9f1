package e2e

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cong-n-tran/raft-sidecar/store"
	"github.com/cong-n-tran/raft-sidecar/twopc"
)

type twoPCFixture struct {
	coordinator *twopc.Coordinator
	tripStore   *store.Store
	locStore    *store.Store
}

func newTwoPCFixture(t *testing.T, basePort int) *twoPCFixture {
	t.Helper()

	tripStore, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("open trip store: %v", err)
	}
	locStore, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("open location store: %v", err)
	}

	trip := twopc.NewTripParticipant("trip", tripStore)
	loc := twopc.NewLocationParticipant("location", locStore)

	tripAddr := fmt.Sprintf("localhost:%d", basePort)
	locAddr := fmt.Sprintf("localhost:%d", basePort+1)

	tripSrv, err := twopc.Serve(tripAddr, trip)
	if err != nil {
		t.Fatalf("serve trip participant: %v", err)
	}
	locSrv, err := twopc.Serve(locAddr, loc)
	if err != nil {
		t.Fatalf("serve location participant: %v", err)
	}
	t.Cleanup(func() {
		tripSrv.GracefulStop()
		locSrv.GracefulStop()
	})

	coord := twopc.NewCoordinator(twopc.Config{
		Participants: []twopc.ParticipantEndpoint{
			{Name: "trip", Address: tripAddr},
			{Name: "location", Address: locAddr},
		},
		RPCDeadline: 2 * time.Second,
		TripStore:   tripStore,
	})

	return &twoPCFixture{coordinator: coord, tripStore: tripStore, locStore: locStore}
}

// S5: register a driver, produce an ongoing ride, complete it. Expect
// ride.status = completed and the driver back in drivers:available.
func TestS5TwoPCCommit(t *testing.T) {
	fx := newTwoPCFixture(t, 53500)

	if err := fx.locStore.MarkDriverUnavailable("d1"); err != nil {
		t.Fatalf("seed driver state: %v", err)
	}
	if err := fx.tripStore.PutRide(store.Ride{RideID: "trip-1", DriverID: "d1", Status: store.RideStatusOngoing}); err != nil {
		t.Fatalf("seed ride: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := fx.coordinator.CompleteTrip(ctx, "trip-1"); err != nil {
		t.Fatalf("complete trip: %v", err)
	}

	ride, err := fx.tripStore.GetRide("trip-1")
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if ride.Status != store.RideStatusCompleted {
		t.Errorf("expected ride completed, got %s", ride.Status)
	}
	if !fx.locStore.IsDriverAvailable("d1") {
		t.Error("expected d1 to be available after commit")
	}
}

// S6: a ride with no driverId assigned must be rejected by the
// coordinator before any participant votes; the ride stays ongoing and
// no participant retains pending state for the (never-minted) txId.
func TestS6TwoPCAbortOnMissingDriver(t *testing.T) {
	fx := newTwoPCFixture(t, 53600)

	if err := fx.tripStore.PutRide(store.Ride{RideID: "trip-2", DriverID: "", Status: store.RideStatusOngoing}); err != nil {
		t.Fatalf("seed ride: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := fx.coordinator.CompleteTrip(ctx, "trip-2")
	if !errors.Is(err, twopc.ErrMissingDriver) {
		t.Fatalf("expected ErrMissingDriver, got %v", err)
	}

	ride, err := fx.tripStore.GetRide("trip-2")
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if ride.Status != store.RideStatusOngoing {
		t.Errorf("ride should remain ongoing after rejection, got %s", ride.Status)
	}
}
