package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutIterationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphem_layout_iterations_total",
			Help: "Total number of layout iterations executed",
		},
	)

	r.LayoutIterationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphem_layout_iteration_duration_seconds",
			Help:    "Wall time of a single layout iteration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	r.LayoutRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphem_layout_runs_total",
			Help: "Total number of RunLayout calls",
		},
		[]string{"status"},
	)

	r.IndexBuildDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphem_index_build_duration_seconds",
			Help:    "Spatial index build time",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"index"},
	)

	r.KNNQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphem_knn_queries_total",
			Help: "Total number of kNN queries answered",
		},
		[]string{"index"},
	)

	r.ForceClampsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphem_force_clamps_total",
			Help: "Silent numeric stabilizations applied by the force model",
		},
		[]string{"kind"},
	)

	r.LayoutVertices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphem_layout_vertices",
			Help: "Vertex count of the most recently constructed engine",
		},
	)

	r.LayoutEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphem_layout_edges",
			Help: "Edge count of the most recently constructed engine",
		},
	)

	r.LayoutMaxDisplacement = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphem_layout_max_displacement",
			Help: "Largest per-vertex displacement in the last iteration",
		},
	)
}
