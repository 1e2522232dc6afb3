package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.SeedSelectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphem_seed_selections_total",
			Help: "Total number of seed sets selected, by method",
		},
		[]string{"method"},
	)

	r.InfluenceSimulationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphem_influence_simulations_total",
			Help: "Total number of independent cascade simulations run",
		},
	)

	r.SnapshotBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphem_snapshot_bytes_total",
			Help: "Encoded snapshot bytes written, by codec",
		},
		[]string{"codec"},
	)

	r.SnapshotOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphem_snapshot_operations_total",
			Help: "Snapshot store operations",
		},
		[]string{"store", "operation", "status"},
	)
}
