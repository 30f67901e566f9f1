// Command tripcoordinator runs the trip subsystem's 2PC coordinator
// together with its own trip participant (reached via loopback RPC,
// per spec), driving ride completion atomically against a
// separately-addressed location participant.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cong-n-tran/raft-sidecar/store"
	"github.com/cong-n-tran/raft-sidecar/twopc"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tripcoordinator",
		Short: "2PC coordinator for ride completion",
		Long: `tripcoordinator hosts the trip participant and the 2PC
coordinator that atomically marks a ride completed while freeing its
driver at the location service.`,
		RunE: runServe,
	}

	rootCmd.Flags().String("port", "50061", "listen port for this process's trip participant gRPC service")
	rootCmd.Flags().String("location-addr", "localhost:50062", "address of the location participant")
	rootCmd.Flags().String("data-dir", "./data/trip", "trip store data directory")
	rootCmd.Flags().String("http-port", "8080", "HTTP port for the complete-trip endpoint")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.New()
	v.BindPFlags(cmd.Flags())
	v.AutomaticEnv()

	port := v.GetString("port")
	locationAddr := v.GetString("location-addr")
	dataDir := v.GetString("data-dir")

	tripStore, err := store.New(dataDir)
	if err != nil {
		return fmt.Errorf("tripcoordinator: failed to open trip store: %w", err)
	}
	defer tripStore.Close()

	selfAddr := "localhost:" + port
	trip := twopc.NewTripParticipant("trip", tripStore)

	server, err := twopc.Serve(":"+port, trip)
	if err != nil {
		return fmt.Errorf("tripcoordinator: failed to serve trip participant: %w", err)
	}
	defer server.GracefulStop()

	coord := twopc.NewCoordinator(twopc.Config{
		Participants: []twopc.ParticipantEndpoint{
			{Name: "trip", Address: selfAddr},
			{Name: "location", Address: locationAddr},
		},
		RPCDeadline: 2 * time.Second,
		TripStore:   tripStore,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/complete-trip", func(w http.ResponseWriter, r *http.Request) {
		rideID := r.URL.Query().Get("rideId")
		if rideID == "" {
			http.Error(w, "missing rideId", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := coord.CompleteTrip(ctx, rideID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, twopc.ErrMissingDriver) {
				status = http.StatusBadRequest
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	httpPort := v.GetString("http-port")
	if httpPort == "" {
		httpPort = "8080"
	}
	return http.ListenAndServe(":"+httpPort, mux)
}
