package assign

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the assignment engine.
type Metrics struct {
	// AssignmentsTotal counts successful table assignments by type.
	AssignmentsTotal *prometheus.CounterVec

	// CyclesTotal counts completed scheduler cycles.
	CyclesTotal prometheus.Counter

	// CyclesSkipped counts ticks skipped because a cycle was still running.
	CyclesSkipped prometheus.Counter

	// UnassignedBookings is the number of unassigned confirmed bookings seen
	// in the last scan.
	UnassignedBookings prometheus.Gauge

	// UnresolvedConflicts counts bookings left unassigned after conflict
	// resolution failed.
	UnresolvedConflicts prometheus.Counter

	// StorageErrors counts storage collaborator failures during cycles.
	StorageErrors prometheus.Counter

	// CycleDuration is the wall time of one full scheduler cycle.
	CycleDuration prometheus.Histogram
}

// NewMetrics creates and registers metrics with the given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AssignmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assignments_total",
				Help:      "Total number of table assignments by type",
			},
			[]string{"type"},
		),

		CyclesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total number of completed assignment cycles",
			},
		),

		CyclesSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_skipped_total",
				Help:      "Ticks skipped because the previous cycle was still running",
			},
		),

		UnassignedBookings: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "unassigned_bookings",
				Help:      "Unassigned confirmed bookings seen in the last scan",
			},
		),

		UnresolvedConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unresolved_conflicts_total",
				Help:      "Bookings left unassigned after conflict resolution failed",
			},
		),

		StorageErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Storage collaborator failures during assignment cycles",
			},
		),

		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Wall time of one full assignment cycle",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
