package metrics

import (
	"runtime"
	"time"
)

// ClampCounts mirrors the per-iteration stabilization counters reported by
// the force model, keyed by kind.
type ClampCounts map[string]int

// RecordIteration records one layout iteration
func (r *Registry) RecordIteration(duration time.Duration, maxDisplacement float64, clamps ClampCounts) {
	r.LayoutIterationsTotal.Inc()
	r.LayoutIterationDuration.Observe(duration.Seconds())
	r.LayoutMaxDisplacement.Set(maxDisplacement)
	for kind, n := range clamps {
		if n > 0 {
			r.ForceClampsTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// RecordIndexBuild records a spatial index rebuild and the queries answered from it
func (r *Registry) RecordIndexBuild(index string, duration time.Duration, queries int) {
	r.IndexBuildDuration.WithLabelValues(index).Observe(duration.Seconds())
	r.KNNQueriesTotal.WithLabelValues(index).Add(float64(queries))
}

// RecordRun records the outcome of a RunLayout call
func (r *Registry) RecordRun(status string) {
	r.LayoutRunsTotal.WithLabelValues(status).Inc()
}

// SetGraphSize records the size of the graph being laid out
func (r *Registry) SetGraphSize(vertices, edges int) {
	r.LayoutVertices.Set(float64(vertices))
	r.LayoutEdges.Set(float64(edges))
}

// RecordSeedSelection records a seed set selection
func (r *Registry) RecordSeedSelection(method string) {
	r.SeedSelectionsTotal.WithLabelValues(method).Inc()
}

// RecordInfluenceSimulations adds n cascade simulations
func (r *Registry) RecordInfluenceSimulations(n int) {
	r.InfluenceSimulationsTotal.Add(float64(n))
}

// RecordSnapshot records a snapshot store operation
func (r *Registry) RecordSnapshot(store, operation, codec string, bytes int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.SnapshotOperationsTotal.WithLabelValues(store, operation, status).Inc()
	if err == nil && operation == "put" {
		r.SnapshotBytesTotal.WithLabelValues(codec).Add(float64(bytes))
	}
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes process gauges
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
}
