// Command raftsidecar runs a single Raft replica: leader election and
// whole-log replication over gRPC, with a local leader query the
// application service in front of it can poll.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/cong-n-tran/raft-sidecar/config"
	"github.com/cong-n-tran/raft-sidecar/raft"
	"github.com/cong-n-tran/raft-sidecar/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "raftsidecar",
		Short: "Raft leader-election sidecar",
		Long: `raftsidecar runs a Raft replica that participates in leader
election and log replication with its peers, and exposes a local
"am I leader?" endpoint to the application service it sits in front of.

Configuration is read from the environment: NODE_ID, PORT, PEERS
(comma-separated peerId:port list; empty means single-node operation),
and DATA_DIR.`,
		RunE: runServe,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("raftsidecar: %w", err)
	}

	st, err := store.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("raftsidecar: failed to open store: %w", err)
	}
	defer st.Close()

	peerIDs, peerAddrs := cfg.PeerAddresses()

	node := raft.NewNode(raft.Config{
		ID:                 cfg.NodeID,
		Peers:              peerIDs,
		PeerAddresses:      peerAddrs,
		Address:            fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		ElectionTimeoutMin: cfg.ElectionTimeoutMin,
		ElectionTimeoutMax: cfg.ElectionTimeoutMax,
		HeartbeatInterval:  cfg.HeartbeatInterval,
		TickInterval:       cfg.TickInterval,
		RPCDeadline:        cfg.RaftRPCDeadline,
		StateMachine:       st,
	})

	if err := node.Start(); err != nil {
		return fmt.Errorf("raftsidecar: %w", err)
	}
	defer node.Shutdown()

	mux := http.NewServeMux()
	mux.Handle("/leader", node.LeaderHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(node.Metrics().Registry, promhttp.HandlerOpts{}))

	httpAddr := fmt.Sprintf("0.0.0.0:%d", cfg.Port+1000)
	return http.ListenAndServe(httpAddr, mux)
}
