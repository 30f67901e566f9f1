package raft

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds a node's Prometheus collectors. Each Node owns a
// private registry rather than registering against the global default:
// a process hosting several Nodes (as the e2e cluster tests do) would
// otherwise panic on the second node's registration of the same metric
// names.
type Metrics struct {
	Registry *prometheus.Registry

	term              prometheus.Gauge
	role              prometheus.Gauge
	electionsStarted  prometheus.Counter
	votesGranted      prometheus.Counter
	heartbeatsSent    prometheus.Counter
	heartbeatsMissed  prometheus.Counter
}

// NewMetrics constructs and registers a node's metric set against a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		term: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raft_current_term",
			Help: "Current Raft term observed by this node.",
		}),
		role: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raft_role",
			Help: "Current role: 0=follower, 1=candidate, 2=leader.",
		}),
		electionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raft_elections_started_total",
			Help: "Number of elections this node has started.",
		}),
		votesGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raft_votes_granted_total",
			Help: "Number of votes this node has received from peers while a candidate.",
		}),
		heartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raft_heartbeats_sent_total",
			Help: "Number of heartbeat rounds this node has broadcast as leader.",
		}),
		heartbeatsMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raft_heartbeats_missed_total",
			Help: "Number of election timeouts fired while this node held no leader.",
		}),
	}

	reg.MustRegister(m.term, m.role, m.electionsStarted, m.votesGranted, m.heartbeatsSent, m.heartbeatsMissed)
	return m
}
