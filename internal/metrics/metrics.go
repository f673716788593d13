package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siop_runs_total",
			Help: "Report pipeline runs by outcome",
		},
		[]string{"status"}, // ok|empty|failed
	)

	RecordsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siop_records_extracted_total",
			Help: "Transaction records extracted across all runs",
		},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siop_deliveries_total",
			Help: "Per-recipient report deliveries by outcome",
		},
		[]string{"status"}, // sent|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RunsTotal,
		RecordsExtracted,
		DeliveriesTotal,
	)
}
