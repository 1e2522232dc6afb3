package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.LayoutIterationsTotal == nil || r.ForceClampsTotal == nil || r.HTTPRequestsTotal == nil {
		t.Fatal("metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Fatal("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordIteration(t *testing.T) {
	r := NewRegistry()

	r.RecordIteration(2*time.Millisecond, 0.75, ClampCounts{"attraction": 2, "repulsion": 0})
	r.RecordIteration(time.Millisecond, 0.5, ClampCounts{"attraction": 1})

	if v := counterValue(t, r.LayoutIterationsTotal); v != 2 {
		t.Errorf("iterations = %v, want 2", v)
	}
	if v := gaugeValue(t, r.LayoutMaxDisplacement); v != 0.5 {
		t.Errorf("max displacement = %v, want 0.5", v)
	}
	if v := counterValue(t, r.ForceClampsTotal.WithLabelValues("attraction")); v != 3 {
		t.Errorf("attraction clamps = %v, want 3", v)
	}
}

func TestRecordIndexBuild(t *testing.T) {
	r := NewRegistry()
	r.RecordIndexBuild("kdtree", time.Millisecond, 64)
	r.RecordIndexBuild("kdtree", time.Millisecond, 36)

	if v := counterValue(t, r.KNNQueriesTotal.WithLabelValues("kdtree")); v != 100 {
		t.Errorf("queries = %v, want 100", v)
	}
}

func TestRecordSnapshot(t *testing.T) {
	r := NewRegistry()
	r.RecordSnapshot("file", "put", "zstd", 1024, nil)
	r.RecordSnapshot("file", "put", "zstd", 1024, errors.New("disk full"))

	if v := counterValue(t, r.SnapshotBytesTotal.WithLabelValues("zstd")); v != 1024 {
		t.Errorf("snapshot bytes = %v, want 1024", v)
	}
	if v := counterValue(t, r.SnapshotOperationsTotal.WithLabelValues("file", "put", "error")); v != 1 {
		t.Errorf("failed puts = %v, want 1", v)
	}
}

func TestGatherExposesLayoutMetrics(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(10, 9)
	r.RecordRun("ok")

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{"graphem_layout_vertices", "graphem_layout_runs_total"} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))
	if v := gaugeValue(t, r.UptimeSeconds); v < 59 {
		t.Errorf("uptime = %v, want about 60", v)
	}
}
