// Package metrics exposes Prometheus counters for the ledger hot paths.
// Registration happens at init via promauto; the HTTP surface serves them
// on /metrics through promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostingsTotal counts journal entries accepted by the ledger.
	PostingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posledger",
		Name:      "postings_total",
		Help:      "Number of journal entries posted.",
	})

	// AllocationsTotal counts completed payment allocation runs.
	AllocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posledger",
		Name:      "allocations_total",
		Help:      "Number of payment allocations completed.",
	})

	// ExcessPaymentsTotal counts allocations that finished with money left
	// over after every candidate invoice was settled.
	ExcessPaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posledger",
		Name:      "excess_payments_total",
		Help:      "Number of allocations that reported an excess payment.",
	})

	// SessionsOpenedTotal counts cashier sessions opened.
	SessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posledger",
		Name:      "sessions_opened_total",
		Help:      "Number of cashier sessions opened.",
	})

	// SessionsReconciledTotal counts sessions that reached Reconciled.
	SessionsReconciledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posledger",
		Name:      "sessions_reconciled_total",
		Help:      "Number of cashier sessions reconciled.",
	})

	// VarianceFlaggedTotal counts cash counts whose variance exceeded the
	// configured tolerance.
	VarianceFlaggedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posledger",
		Name:      "variance_flagged_total",
		Help:      "Number of cash counts flagged for out-of-tolerance variance.",
	})
)
