package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePeersEmpty(t *testing.T) {
	peers, err := parsePeers("")
	require.NoError(t, err)
	require.Empty(t, peers)
}

func TestParsePeersList(t *testing.T) {
	peers, err := parsePeers("node2:50052,node3:50053")
	require.NoError(t, err)
	require.Equal(t, []Peer{
		{ID: "node2", Address: "localhost:50052"},
		{ID: "node3", Address: "localhost:50053"},
	}, peers)
}

func TestParsePeersMalformed(t *testing.T) {
	_, err := parsePeers("node2")
	require.Error(t, err)
}
