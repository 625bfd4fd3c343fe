package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rosterImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Total number of imported roster rows broken down by outcome.",
	}, []string{"action"})

	rosterImportConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roster",
		Subsystem: "import",
		Name:      "conflicts_total",
		Help:      "Total number of imports abandoned after all retry attempts failed.",
	})

	rosterImportRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roster",
		Subsystem: "import",
		Name:      "retries_total",
		Help:      "Total number of import transaction attempts retried after a conflict.",
	})
)

func recordImportOutcome(summary ImportSummary) {
	rosterImportRows.WithLabelValues(string(ActionCreated)).Add(float64(summary.Created))
	rosterImportRows.WithLabelValues(string(ActionUpdated)).Add(float64(summary.Updated))
	rosterImportRows.WithLabelValues(string(ActionRestored)).Add(float64(summary.Restored))
	rosterImportRows.WithLabelValues(string(ActionSkipped)).Add(float64(summary.Skipped))
	rosterImportRows.WithLabelValues(string(ActionFailed)).Add(float64(summary.Failed))
}
