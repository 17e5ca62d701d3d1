package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// txCommits counts committed transactions.
	txCommits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "manifest",
		Subsystem: "store",
		Name:      "commits_total",
		Help:      "Total committed transactions",
	})

	// txRollbacks counts rolled back transactions.
	// Labels: reason (error, panic)
	txRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manifest",
		Subsystem: "store",
		Name:      "rollbacks_total",
		Help:      "Total rolled back transactions",
	}, []string{"reason"})

	// opsTotal counts mutations by kind.
	// Labels: op (insert, update, remove, wrap, merge, ensure_ids)
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manifest",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Total mutations applied to a document",
	}, []string{"op"})

	// deltaSize tracks the number of index changes per commit.
	deltaSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "manifest",
		Subsystem: "store",
		Name:      "index_delta_size",
		Help:      "Number of index entries changed by a commit",
		Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 1000},
	})
)
