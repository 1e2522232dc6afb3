package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all graphem metrics
type Registry struct {
	// Layout Metrics
	LayoutIterationsTotal   prometheus.Counter
	LayoutIterationDuration prometheus.Histogram
	LayoutRunsTotal         *prometheus.CounterVec
	IndexBuildDuration      *prometheus.HistogramVec
	KNNQueriesTotal         *prometheus.CounterVec
	ForceClampsTotal        *prometheus.CounterVec
	LayoutVertices          prometheus.Gauge
	LayoutEdges             prometheus.Gauge
	LayoutMaxDisplacement   prometheus.Gauge

	// Analysis Metrics
	SeedSelectionsTotal       *prometheus.CounterVec
	InfluenceSimulationsTotal prometheus.Counter
	SnapshotBytesTotal        *prometheus.CounterVec
	SnapshotOperationsTotal   *prometheus.CounterVec

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initLayoutMetrics()
	r.initAnalysisMetrics()
	r.initHTTPMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
