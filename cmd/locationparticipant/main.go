// Command locationparticipant hosts the location subsystem's 2PC
// participant: it votes commit only when a driver id is present on the
// transaction, and on commit marks that driver available again.
package main

import (
	"fmt"
	"os"

	"github.com/cong-n-tran/raft-sidecar/store"
	"github.com/cong-n-tran/raft-sidecar/twopc"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "locationparticipant",
		Short: "2PC participant for driver availability",
		RunE:  runServe,
	}

	rootCmd.Flags().String("port", "50062", "listen port for the location participant gRPC service")
	rootCmd.Flags().String("data-dir", "./data/location", "location store data directory")

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
	dataDir := v.GetString("data-dir")

	locationStore, err := store.New(dataDir)
	if err != nil {
		return fmt.Errorf("locationparticipant: failed to open store: %w", err)
	}
	defer locationStore.Close()

	location := twopc.NewLocationParticipant("location", locationStore)

	server, err := twopc.Serve(":"+port, location)
	if err != nil {
		return fmt.Errorf("locationparticipant: failed to serve: %w", err)
	}
	defer server.GracefulStop()

	select {}
}
