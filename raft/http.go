package raft

import (
	"encoding/json"
	"net/http"
)

// leaderResponse is the JSON body served by LeaderHandler, matching the
// original system's raft_client wire shape: {"leader": "<nodeId>"} once
// a leader is known, {"leader": null} otherwise.
type leaderResponse struct {
	Leader *string `json:"leader"`
}

// LeaderHandler serves GET /leader for out-of-process callers, mirroring
// the original system's raft_client polling a sidecar's "/leader"
// endpoint instead of dialing gRPC directly. In-process callers should
// prefer GetLeader/GetState.
func (n *Node) LeaderHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		leaderID := n.GetLeader()

		w.Header().Set("Content-Type", "application/json")
		if leaderID == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(leaderResponse{})
			return
		}
		json.NewEncoder(w).Encode(leaderResponse{Leader: &leaderID})
	})
}
