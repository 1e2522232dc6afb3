package layout

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/metrics"
	"github.com/dd0wney/graphem/pkg/render"
	"github.com/dd0wney/graphem/pkg/spatial"
)

func cycle4() *graph.Graph {
	return graph.MustNew(4, []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 3, V: 0}})
}

func path(n int) *graph.Graph {
	edges := make([]graph.Edge, n-1)
	for i := range edges {
		edges[i] = graph.Edge{U: i, V: i + 1}
	}
	return graph.MustNew(n, edges)
}

func randomGraph(rng *rand.Rand, n, m int) *graph.Graph {
	edges := make([]graph.Edge, m)
	for i := range edges {
		edges[i] = graph.Edge{U: rng.IntN(n), V: rng.IntN(n)}
	}
	return graph.MustNew(n, edges)
}

func dist(a, b []float64) float64 {
	sum := 0.0
	for k := range a {
		d := a[k] - b[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func meanEdgeLength(g *graph.Graph, pos [][]float64) float64 {
	total := 0.0
	for _, e := range g.Edges() {
		total += dist(pos[e.U], pos[e.V])
	}
	return total / float64(g.M())
}

func allFinite(pos [][]float64) bool {
	for _, row := range pos {
		for _, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

func equalPositions(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for k := range a[i] {
			if a[i][k] != b[i][k] {
				return false
			}
		}
	}
	return true
}

func TestNew_Errors(t *testing.T) {
	g := cycle4()
	withParams := func(f func(*Params)) Params {
		p := DefaultParams()
		f(&p)
		return p
	}

	tests := []struct {
		name   string
		g      *graph.Graph
		params Params
		opts   []Option
		want   error
	}{
		{"nil graph", nil, DefaultParams(), nil, ErrInvalidGraph},
		{"negative knn", g, withParams(func(p *Params) { p.KNNK = -1 }), nil, ErrInvalidParameter},
		{"negative sample size", g, withParams(func(p *Params) { p.SampleSize = -3 }), nil, ErrInvalidParameter},
		{"negative batch size", g, withParams(func(p *Params) { p.BatchSize = -1 }), nil, ErrInvalidParameter},
		{"nan attraction", g, withParams(func(p *Params) { p.KAttr = math.NaN() }), nil, ErrInvalidParameter},
		{"infinite repulsion", g, withParams(func(p *Params) { p.KInter = math.Inf(1) }), nil, ErrInvalidParameter},
		{"negative rest length", g, withParams(func(p *Params) { p.LMin = -1 }), nil, ErrInvalidParameter},
		{"zero dimension", g, withParams(func(p *Params) { p.Dimension = 0 }), nil, ErrInvalidParameter},
		{"unknown index", g, DefaultParams(), []Option{WithIndexKind("octree")}, ErrInvalidParameter},
		{"negative max step", g, DefaultParams(), []Option{WithMaxStep(-1)}, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.g, tt.params, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_ZeroCountsAllowed(t *testing.T) {
	p := DefaultParams()
	p.KNNK, p.SampleSize, p.BatchSize = 0, 0, 0
	e, err := New(cycle4(), p, WithSeed(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := e.Positions()
	if err := e.RunLayout(5); err != nil {
		t.Fatal(err)
	}
	if !equalPositions(before, e.Positions()) {
		t.Error("positions moved with nothing sampled")
	}
}

func TestNew_ClampsCounts(t *testing.T) {
	g := graph.MustNew(3, []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}})
	e, err := New(g, DefaultParams(), WithSeed(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := e.Params()
	if got.KNNK != 2 || got.SampleSize != 2 || got.BatchSize != 3 {
		t.Errorf("effective params = %+v, want knn_k=2 sample_size=2 batch_size=3", got)
	}
	if e.RequestedParams() != DefaultParams() {
		t.Errorf("requested params changed: %+v", e.RequestedParams())
	}
	if e.MaxStep() != 50 {
		t.Errorf("MaxStep = %v, want 5*l_min", e.MaxStep())
	}
}

func TestNew_InitialPositions(t *testing.T) {
	p := DefaultParams()
	p.Dimension = 2
	e, err := New(path(16), p, WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}

	// half-width is l_min * n^(1/d) / 2 = 10 * 4 / 2
	pos := e.Positions()
	if len(pos) != 16 {
		t.Fatalf("len(positions) = %d, want 16", len(pos))
	}
	for v, row := range pos {
		if len(row) != 2 {
			t.Fatalf("vertex %d has dimension %d", v, len(row))
		}
		for _, x := range row {
			if math.Abs(x) > 20 {
				t.Errorf("vertex %d at %v is outside the initial box", v, row)
			}
		}
	}
	if e.State() != Initialized {
		t.Errorf("State = %v, want initialized", e.State())
	}
}

func TestRunLayout_ZeroIterations(t *testing.T) {
	e, err := New(cycle4(), DefaultParams(), WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	before := e.Positions()
	if err := e.RunLayout(0); err != nil {
		t.Fatal(err)
	}
	if !equalPositions(before, e.Positions()) {
		t.Error("RunLayout(0) changed positions")
	}
	if e.Iterations() != 0 {
		t.Errorf("Iterations = %d, want 0", e.Iterations())
	}
}

func TestRunLayout_NegativeIterations(t *testing.T) {
	e, err := New(cycle4(), DefaultParams(), WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RunLayout(-1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("RunLayout(-1) error = %v, want ErrInvalidParameter", err)
	}
}

func TestTryRunLayout_Busy(t *testing.T) {
	e, err := New(cycle4(), DefaultParams(), WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	e.runMu.Lock()
	if err := e.TryRunLayout(3); !errors.Is(err, ErrBusy) {
		t.Errorf("TryRunLayout during a run: error = %v, want ErrBusy", err)
	}
	e.runMu.Unlock()

	if err := e.TryRunLayout(3); err != nil {
		t.Fatalf("TryRunLayout on an idle engine: %v", err)
	}
	if e.Iterations() != 3 {
		t.Errorf("Iterations = %d, want 3", e.Iterations())
	}
	if err := e.TryRunLayout(-1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("TryRunLayout(-1) error = %v, want ErrInvalidParameter", err)
	}
}

func TestRunLayout_SingleVertex(t *testing.T) {
	g := graph.MustNew(1, nil)
	for _, kind := range spatial.Kinds() {
		t.Run(kind, func(t *testing.T) {
			e, err := New(g, DefaultParams(), WithSeed(9), WithIndexKind(kind))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			before := e.Positions()
			if err := e.RunLayout(10); err != nil {
				t.Fatal(err)
			}
			if !equalPositions(before, e.Positions()) {
				t.Errorf("single vertex moved from %v to %v", before, e.Positions())
			}
		})
	}
}

func TestRunLayout_Deterministic(t *testing.T) {
	g := randomGraph(rand.New(rand.NewPCG(1, 2)), 300, 900)
	p := DefaultParams()
	p.SampleSize, p.BatchSize = 128, 64

	for _, workers := range []int{1, 4} {
		run := func() [][]float64 {
			e, err := New(g, p, WithSeed(42), WithWorkers(workers))
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close()
			if err := e.RunLayout(15); err != nil {
				t.Fatal(err)
			}
			return e.Positions()
		}
		if !equalPositions(run(), run()) {
			t.Errorf("workers=%d: identical seeds produced different layouts", workers)
		}
	}
}

func TestRunLayout_ContinuesFromCurrentPositions(t *testing.T) {
	g := path(10)
	a, _ := New(g, DefaultParams(), WithSeed(8))
	b, _ := New(g, DefaultParams(), WithSeed(8))

	if err := a.RunLayout(10); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := b.RunLayout(5); err != nil {
			t.Fatal(err)
		}
	}
	if !equalPositions(a.Positions(), b.Positions()) {
		t.Error("10 iterations differ from 5+5 iterations")
	}
	if b.Iterations() != 10 {
		t.Errorf("Iterations = %d, want 10", b.Iterations())
	}
}

func TestRunLayout_Finite(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25

	properties := gopter.NewProperties(parameters)
	properties.Property("positions stay finite", prop.ForAll(
		func(seed uint64, n, dim int, kInter float64) bool {
			rng := rand.New(rand.NewPCG(seed, 3))
			g := randomGraph(rng, n, 2*n)
			p := DefaultParams()
			p.Dimension = dim
			p.KInter = kInter
			// a tiny initial box puts many vertices almost on top of each other
			e, err := New(g, p, WithSeed(seed), WithInitScale(1e-12))
			if err != nil {
				return false
			}
			if err := e.RunLayout(10); err != nil {
				return false
			}
			return allFinite(e.Positions())
		},
		gen.UInt64(),
		gen.IntRange(2, 80),
		gen.IntRange(1, 4),
		gen.Float64Range(0, 1e6),
	))
	properties.TestingRun(t)
}

func TestFourCycleConverges(t *testing.T) {
	p := Params{LMin: 1, KAttr: 0.5, KInter: 0.1, KNNK: 2, SampleSize: 512, BatchSize: 1024, Dimension: 2}
	g := cycle4()

	ok := 0
	for seed := uint64(0); seed < 10; seed++ {
		e, err := New(g, p, WithSeed(seed))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.RunLayout(50); err != nil {
			t.Fatal(err)
		}
		pos := e.Positions()
		within := true
		for _, edge := range g.Edges() {
			if math.Abs(dist(pos[edge.U], pos[edge.V])-1) > 0.2 {
				within = false
			}
		}
		if within {
			ok++
		}
	}
	if ok < 9 {
		t.Errorf("edge lengths within 0.2 of l_min for %d/10 seeds, want at least 9", ok)
	}
}

func TestPathStabilizes(t *testing.T) {
	p := DefaultParams()
	p.LMin, p.KAttr = 1, 0.1
	g := path(5)

	improved := 0
	for seed := uint64(0); seed < 10; seed++ {
		e, err := New(g, p, WithSeed(seed), WithInitScale(5))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.RunLayout(1); err != nil {
			t.Fatal(err)
		}
		early := math.Abs(meanEdgeLength(g, e.Positions()) - 1)
		if err := e.RunLayout(99); err != nil {
			t.Fatal(err)
		}
		late := math.Abs(meanEdgeLength(g, e.Positions()) - 1)
		if late < early {
			improved++
		}
	}
	if improved < 8 {
		t.Errorf("mean edge length moved towards l_min for %d/10 seeds, want at least 8", improved)
	}
}

func TestState(t *testing.T) {
	e, err := New(cycle4(), DefaultParams(), WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if e.State() != Initialized {
		t.Errorf("after New: %v", e.State())
	}
	if err := e.RunLayout(2); err != nil {
		t.Fatal(err)
	}
	if e.State() != Stopped {
		t.Errorf("after RunLayout: %v", e.State())
	}
	if got := Running.String(); got != "running" {
		t.Errorf("Running.String() = %q", got)
	}
}

func TestClose(t *testing.T) {
	e, err := New(cycle4(), DefaultParams(), WithSeed(1), WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := e.RunLayout(1); !errors.Is(err, ErrClosed) {
		t.Errorf("RunLayout after Close: %v", err)
	}
	if len(e.Positions()) != 4 {
		t.Error("positions not readable after Close")
	}
}

func TestSnapshotRestore(t *testing.T) {
	g := path(6)
	a, _ := New(g, DefaultParams(), WithSeed(2))
	if err := a.RunLayout(7); err != nil {
		t.Fatal(err)
	}
	snap := a.Snapshot()
	if snap.Iteration != 7 || snap.RunID != a.RunID() {
		t.Errorf("snapshot header = %d %v", snap.Iteration, snap.RunID)
	}

	b, _ := New(g, DefaultParams(), WithSeed(99))
	if err := b.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !equalPositions(a.Positions(), b.Positions()) {
		t.Error("restored positions differ")
	}
	if b.Iterations() != 7 || b.RunID() != a.RunID() {
		t.Errorf("restored iteration/run = %d %v", b.Iterations(), b.RunID())
	}

	snap.Positions = snap.Positions[:3]
	if err := b.Restore(snap); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("restore with wrong vertex count: %v", err)
	}

	bad := a.Snapshot()
	bad.Positions[1][0] = math.NaN()
	if err := b.Restore(bad); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("restore with NaN: %v", err)
	}
}

type recordingRenderer struct {
	scene render.Scene
}

func (r *recordingRenderer) Render(_ context.Context, w io.Writer, s render.Scene) error {
	r.scene = s
	_, err := io.WriteString(w, "ok")
	return err
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, io.Writer, render.Scene) error {
	return errors.New("no display")
}

func TestDisplayLayout(t *testing.T) {
	e, _ := New(cycle4(), DefaultParams(), WithSeed(4))
	r := &recordingRenderer{}
	var buf bytes.Buffer

	opts := render.Options{EdgeWidth: 2, NodeSize: 4, Title: "cycle"}
	if err := e.DisplayLayout(context.Background(), &buf, r, opts); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ok" {
		t.Errorf("writer got %q", buf.String())
	}
	if len(r.scene.Positions) != 4 || len(r.scene.Edges) != 4 || r.scene.Options.Title != "cycle" {
		t.Errorf("scene = %+v", r.scene)
	}

	err := e.DisplayLayout(context.Background(), &buf, failingRenderer{}, opts)
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("renderer error not propagated: %v", err)
	}
}

func TestCustomIndex(t *testing.T) {
	e, err := New(path(20), DefaultParams(), WithSeed(6), WithIndex(spatial.NewBrute()))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RunLayout(5); err != nil {
		t.Fatal(err)
	}
	if !allFinite(e.Positions()) {
		t.Error("non-finite positions")
	}
}

func TestMetricsAndLogging(t *testing.T) {
	reg := metrics.NewRegistry()
	var logs bytes.Buffer
	logger := logging.NewJSONLogger(&logs, logging.DebugLevel)

	e, err := New(path(30), DefaultParams(), WithSeed(1), WithMetrics(reg), WithLogger(logger), WithVerbose(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RunLayout(3); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(reg.LayoutIterationsTotal); got != 3 {
		t.Errorf("iterations counter = %v, want 3", got)
	}
	if got := testutil.ToFloat64(reg.LayoutRunsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("runs{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.LayoutVertices); got != 30 {
		t.Errorf("vertices gauge = %v, want 30", got)
	}

	out := logs.String()
	for _, want := range []string{"layout engine initialized", "layout progress", `"component":"layout"`} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %q:\n%s", want, out)
		}
	}
}

func TestSampler(t *testing.T) {
	s := newSampler(10)
	rng := rand.New(rand.NewPCG(1, 1))

	got := s.sample(rng, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d", len(got))
	}
	seen := map[int]bool{}
	for _, v := range got {
		if v < 0 || v >= 10 || seen[v] {
			t.Errorf("bad sample %v", got)
		}
		seen[v] = true
	}
	if n := len(s.sample(rng, 25)); n != 10 {
		t.Errorf("oversized draw returned %d items, want 10", n)
	}
	if n := len(newSampler(0).sample(rng, 3)); n != 0 {
		t.Errorf("empty sampler returned %d items", n)
	}
}
