package twopc

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds one role's (coordinator or participant) private
// Prometheus registry, for the same reason raft.Metrics uses one: many
// roles can share a test process without colliding on metric names.
type Metrics struct {
	Registry *prometheus.Registry

	transactionsStarted   prometheus.Counter
	transactionsCommitted prometheus.Counter
	transactionsAborted   prometheus.Counter
	votesRequested        prometheus.Counter
	commitsApplied        prometheus.Counter
	abortsApplied         prometheus.Counter
}

func NewMetrics(role string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		transactionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "twopc_transactions_started_total",
			Help:        "2PC transactions initiated by this coordinator.",
			ConstLabels: prometheus.Labels{"role": role},
		}),
		transactionsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "twopc_transactions_committed_total",
			Help:        "2PC transactions that reached global commit.",
			ConstLabels: prometheus.Labels{"role": role},
		}),
		transactionsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "twopc_transactions_aborted_total",
			Help:        "2PC transactions that reached global abort.",
			ConstLabels: prometheus.Labels{"role": role},
		}),
		votesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "twopc_votes_requested_total",
			Help:        "VoteRequest calls handled by this participant.",
			ConstLabels: prometheus.Labels{"role": role},
		}),
		commitsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "twopc_commits_applied_total",
			Help:        "GlobalCommit calls that found a pending entry and applied the local write.",
			ConstLabels: prometheus.Labels{"role": role},
		}),
		abortsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "twopc_aborts_applied_total",
			Help:        "GlobalAbort calls that found and discarded a pending entry.",
			ConstLabels: prometheus.Labels{"role": role},
		}),
	}

	reg.MustRegister(m.transactionsStarted, m.transactionsCommitted, m.transactionsAborted,
		m.votesRequested, m.commitsApplied, m.abortsApplied)
	return m
}
