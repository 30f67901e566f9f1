// Package config loads the sidecar's environment-driven settings
// (spec §6 "Environment inputs") through viper, the way the rest of
// this corpus binds process configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Peer is one entry parsed out of PEERS ("peerId:port"); Address is
// always "localhost:<port>".
type Peer struct {
	ID      string
	Address string
}

// Config is the sidecar's fully resolved runtime configuration.
type Config struct {
	NodeID string
	Port   int
	Peers  []Peer

	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration
	HeartbeatInterval  time.Duration
	TickInterval       time.Duration
	RaftRPCDeadline    time.Duration

	TwoPCRPCDeadline time.Duration

	DataDir string
}

// Load binds NODE_ID, PORT, PEERS (and the tunable timing knobs, all
// optional) from the environment, applying spec.md's defaults for
// anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("NODE_ID", "node1")
	v.SetDefault("PORT", 50051)
	v.SetDefault("PEERS", "")
	v.SetDefault("ELECTION_TIMEOUT_MIN_MS", 1500)
	v.SetDefault("ELECTION_TIMEOUT_MAX_MS", 3000)
	v.SetDefault("HEARTBEAT_INTERVAL_MS", 1000)
	v.SetDefault("TICK_INTERVAL_MS", 50)
	v.SetDefault("RAFT_RPC_DEADLINE_MS", 1000)
	v.SetDefault("TWOPC_RPC_DEADLINE_MS", 2000)
	v.SetDefault("DATA_DIR", "./data")

	peers, err := parsePeers(v.GetString("PEERS"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid PEERS: %w", err)
	}

	return &Config{
		NodeID:             v.GetString("NODE_ID"),
		Port:               v.GetInt("PORT"),
		Peers:              peers,
		ElectionTimeoutMin: time.Duration(v.GetInt("ELECTION_TIMEOUT_MIN_MS")) * time.Millisecond,
		ElectionTimeoutMax: time.Duration(v.GetInt("ELECTION_TIMEOUT_MAX_MS")) * time.Millisecond,
		HeartbeatInterval:  time.Duration(v.GetInt("HEARTBEAT_INTERVAL_MS")) * time.Millisecond,
		TickInterval:       time.Duration(v.GetInt("TICK_INTERVAL_MS")) * time.Millisecond,
		RaftRPCDeadline:    time.Duration(v.GetInt("RAFT_RPC_DEADLINE_MS")) * time.Millisecond,
		TwoPCRPCDeadline:   time.Duration(v.GetInt("TWOPC_RPC_DEADLINE_MS")) * time.Millisecond,
		DataDir:            v.GetString("DATA_DIR"),
	}, nil
}

// parsePeers parses a comma-separated "peerId:port" list (spec §6). An
// empty string means single-node operation. Peer ids resolve against
// localhost, matching the single-machine cluster setup this sidecar is
// tested against.
func parsePeers(raw string) ([]Peer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	peers := make([]Peer, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.LastIndex(part, ":")
		if idx <= 0 {
			return nil, fmt.Errorf("malformed peer entry %q, expected peerId:port", part)
		}
		peers = append(peers, Peer{ID: part[:idx], Address: "localhost:" + part[idx+1:]})
	}
	return peers, nil
}

// PeerAddresses returns the peers as an id->address map and an id list,
// the shapes raft.Config expects.
func (c *Config) PeerAddresses() (ids []string, addrs map[string]string) {
	addrs = make(map[string]string, len(c.Peers))
	for _, p := range c.Peers {
		ids = append(ids, p.ID)
		addrs[p.ID] = p.Address
	}
	return ids, addrs
}
