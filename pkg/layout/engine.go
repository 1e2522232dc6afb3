// Package layout drives the force-directed embedding: it owns the position
// array, rebuilds the spatial index every iteration, samples edges and
// vertices, and integrates the displacements computed by the force model.
package layout

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dd0wney/graphem/pkg/force"
	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/metrics"
	"github.com/dd0wney/graphem/pkg/parallel"
	"github.com/dd0wney/graphem/pkg/render"
	"github.com/dd0wney/graphem/pkg/snapshot"
	"github.com/dd0wney/graphem/pkg/spatial"
)

// Engine embeds one graph. All methods are safe for concurrent use; a
// RunLayout call holds the engine exclusively until it returns.
type Engine struct {
	mu sync.Mutex
	// runMu is held for the whole of a run; mu only guards the data
	runMu sync.Mutex

	g         *graph.Graph
	requested Params
	params    Params
	model     force.Model

	index     spatial.Index
	indexName string
	rng       *rand.Rand
	seed      uint64
	edges     *sampler
	vertices  *sampler

	positions  [][]float64
	iterations int
	state      atomic.Int32
	closed     bool
	runID      uuid.UUID

	pool     *parallel.WorkerPool
	ownsPool bool
	lanes    int

	logger   logging.Logger
	metrics  *metrics.Registry
	verbose  bool
	progress *rate.Limiter
}

// New validates the graph and parameters, seeds the initial positions and
// returns an Initialized engine. Count parameters larger than the graph can
// supply are clamped; invalid ones fail with ErrInvalidParameter.
func New(g *graph.Graph, params Params, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, graph.NewError("layout.New").Detail("nil graph").Cause(ErrInvalidGraph).Err()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxStep < 0 || math.IsNaN(o.maxStep) || o.epsilon < 0 || math.IsNaN(o.epsilon) || o.initScale < 0 || math.IsNaN(o.initScale) {
		return nil, graph.NewError("layout.New").Detail("max step, epsilon and init scale must be non-negative").Cause(ErrInvalidParameter).Err()
	}

	e := &Engine{
		g:         g,
		requested: params,
		logger:    o.logger,
		metrics:   o.metrics,
		verbose:   o.verbose,
		runID:     uuid.New(),
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	e.logger = e.logger.With(logging.Component("layout"))

	var clamped []string
	e.params, clamped = params.clampTo(g)
	for _, name := range clamped {
		e.logger.Debug("parameter clamped to graph size", logging.String("param", name))
	}

	rest := math.Max(e.params.LMin, 1)
	e.model = force.Model{
		LMin:    e.params.LMin,
		KAttr:   e.params.KAttr,
		KInter:  e.params.KInter,
		MaxStep: o.maxStep,
		Epsilon: o.epsilon,
	}
	if e.model.MaxStep == 0 {
		e.model.MaxStep = 5 * rest
	}
	if e.model.Epsilon == 0 {
		e.model.Epsilon = force.DefaultEpsilon
	}

	switch {
	case o.rng != nil:
		e.rng = o.rng
	case o.seeded:
		e.seed = o.seed
		e.rng = rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	default:
		e.seed = rand.Uint64()
		e.rng = rand.New(rand.NewPCG(e.seed, e.seed^0x9e3779b97f4a7c15))
	}

	if err := e.setupIndex(o); err != nil {
		return nil, err
	}
	if err := e.setupPool(o); err != nil {
		return nil, err
	}

	e.edges = newSampler(g.M())
	e.vertices = newSampler(g.N())
	if e.verbose {
		e.progress = rate.NewLimiter(rate.Every(time.Second), 1)
	}

	h := o.initScale
	if h == 0 {
		h = rest * math.Pow(float64(g.N()), 1/float64(e.params.Dimension)) / 2
	}
	e.positions = make([][]float64, g.N())
	for v := range e.positions {
		row := make([]float64, e.params.Dimension)
		for d := range row {
			row[d] = (2*e.rng.Float64() - 1) * h
		}
		e.positions[v] = row
	}

	if e.metrics != nil {
		e.metrics.SetGraphSize(g.N(), g.M())
	}
	e.state.Store(int32(Initialized))
	e.logger.Info("layout engine initialized",
		logging.Vertices(g.N()),
		logging.Edges(g.M()),
		logging.Int("dimension", e.params.Dimension),
		logging.String("index", e.indexName),
		logging.Int("lanes", e.lanes),
	)
	return e, nil
}

func (e *Engine) setupIndex(o engineOptions) error {
	if o.index != nil {
		e.index = o.index
		e.indexName = fmt.Sprintf("%T", o.index)
		return nil
	}
	kind := o.indexKind
	if kind == "" {
		kind = spatial.KindKDTree
	}
	idx, err := spatial.New(kind, spatial.WithSeed(e.rng.Uint64()))
	if err != nil {
		return graph.NewError("layout.New").Param("index", kind).Cause(fmt.Errorf("%w: %w", ErrInvalidParameter, err)).Err()
	}
	e.index, e.indexName = idx, kind
	return nil
}

func (e *Engine) setupPool(o engineOptions) error {
	switch {
	case o.pool != nil:
		e.pool = o.pool
	case o.workers > 1:
		pool, err := parallel.NewWorkerPool(o.workers)
		if err != nil {
			return graph.NewError("layout.New").Param("workers", o.workers).Cause(fmt.Errorf("%w: %w", ErrInvalidParameter, err)).Err()
		}
		e.pool, e.ownsPool = pool, true
	}
	e.lanes = 1
	if e.pool != nil {
		e.lanes = e.pool.Workers()
	}
	return nil
}

// RunLayout advances the embedding by exactly iterations steps. It never
// stops early. Calling it again continues from the current positions.
func (e *Engine) RunLayout(iterations int) error {
	if iterations < 0 {
		return graph.NewError("layout.RunLayout").Param("iterations", iterations).Cause(ErrInvalidParameter).Err()
	}
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.run(iterations)
}

// TryRunLayout is RunLayout without the wait: it returns ErrBusy when
// another run holds the engine.
func (e *Engine) TryRunLayout(iterations int) error {
	if iterations < 0 {
		return graph.NewError("layout.TryRunLayout").Param("iterations", iterations).Cause(ErrInvalidParameter).Err()
	}
	if !e.runMu.TryLock() {
		return ErrBusy
	}
	defer e.runMu.Unlock()
	return e.run(iterations)
}

func (e *Engine) run(iterations int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.state.Store(int32(Running))
	defer e.state.Store(int32(Stopped))

	timer := logging.StartTimer(e.logger, "layout run finished", logging.Int("iterations", iterations))
	for i := 0; i < iterations; i++ {
		if err := e.step(); err != nil {
			timer.EndError(err)
			if e.metrics != nil {
				e.metrics.RecordRun("error")
			}
			return err
		}
	}
	if iterations > 0 {
		timer.End()
	}
	if e.metrics != nil {
		e.metrics.RecordRun("ok")
	}
	return nil
}

// step runs one iteration: rebuild, sample, query, compute, integrate.
func (e *Engine) step() error {
	start := time.Now()

	if err := e.index.Build(e.positions); err != nil {
		return fmt.Errorf("rebuild spatial index: %w", err)
	}
	built := time.Now()

	batch := force.Batch{
		Edges:    e.sampleEdges(),
		Vertices: e.vertices.sample(e.rng, e.params.BatchSize),
	}
	neighbors, err := e.queryNeighbors(batch.Vertices)
	if err != nil {
		return err
	}
	batch.Neighbors = neighbors

	disp, stats, err := e.model.ComputeParallel(e.pool, e.lanes, e.positions, batch)
	if err != nil {
		return fmt.Errorf("compute forces: %w", err)
	}

	maxDisp := 0.0
	for v, row := range e.positions {
		norm := 0.0
		for d := range row {
			row[d] += disp[v][d]
			norm += disp[v][d] * disp[v][d]
		}
		maxDisp = math.Max(maxDisp, math.Sqrt(norm))
	}
	e.iterations++

	if e.metrics != nil {
		e.metrics.RecordIndexBuild(e.indexName, built.Sub(start), len(batch.Vertices))
		e.metrics.RecordIteration(time.Since(start), maxDisp, metrics.ClampCounts{
			"attraction": stats.ClampedAttraction,
			"repulsion":  stats.ClampedRepulsion,
			"vertex":     stats.ClampedVertices,
			"epsilon":    stats.EpsilonDistances,
			"non_finite": stats.NonFinite,
		})
	}
	if e.verbose && e.progress.Allow() {
		e.logger.Info("layout progress",
			logging.Iteration(e.iterations),
			logging.Float64("max_displacement", maxDisp),
			logging.Int("clamped", stats.ClampedAttraction+stats.ClampedRepulsion+stats.ClampedVertices),
			logging.Latency(time.Since(start)),
		)
	}
	return nil
}

func (e *Engine) sampleEdges() []graph.Edge {
	idx := e.edges.sample(e.rng, e.params.SampleSize)
	out := make([]graph.Edge, len(idx))
	for i, k := range idx {
		out[i] = e.g.Edge(k)
	}
	return out
}

// queryNeighbors finds the non-adjacent repulsion partners of every batch
// vertex, splitting the queries across lanes when a pool is available.
func (e *Engine) queryNeighbors(vertices []int) ([][]spatial.Neighbor, error) {
	exclude := e.g.Adjacent
	if e.pool == nil || e.lanes <= 1 {
		return e.index.QueryKNN(vertices, e.params.KNNK, exclude), nil
	}

	out := make([][]spatial.Neighbor, len(vertices))
	parts := parallel.Split(len(vertices), e.lanes)
	tasks := make([]func(), len(parts))
	for i, r := range parts {
		tasks[i] = func() {
			copy(out[r[0]:r[1]], e.index.QueryKNN(vertices[r[0]:r[1]], e.params.KNNK, exclude))
		}
	}
	if err := e.pool.Run(tasks); err != nil {
		return nil, fmt.Errorf("query neighbours: %w", err)
	}
	return out, nil
}

// Positions returns a copy of the current coordinates, shape (n, dimension).
func (e *Engine) Positions() [][]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyPositions(e.positions)
}

func copyPositions(src [][]float64) [][]float64 {
	if len(src) == 0 {
		return [][]float64{}
	}
	dim := len(src[0])
	flat := make([]float64, len(src)*dim)
	out := make([][]float64, len(src))
	for i, row := range src {
		out[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
		copy(out[i], row)
	}
	return out
}

// Graph returns the graph being embedded.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Params returns the effective parameters, after clamping.
func (e *Engine) Params() Params { return e.params }

// RequestedParams returns the parameters as passed to New.
func (e *Engine) RequestedParams() Params { return e.requested }

// MaxStep returns the clamp applied to forces and displacements.
func (e *Engine) MaxStep() float64 { return e.model.MaxStep }

// Seed returns the seed the random source was created from. It is zero when
// the source was injected with WithRand.
func (e *Engine) Seed() uint64 { return e.seed }

// RunID identifies this engine in snapshots.
func (e *Engine) RunID() uuid.UUID { return e.runID }

// State returns the lifecycle state without waiting for a running layout.
func (e *Engine) State() State { return State(e.state.Load()) }

// Iterations returns the number of iterations run so far.
func (e *Engine) Iterations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.iterations
}

// DisplayLayout hands the current positions and edges to a renderer.
func (e *Engine) DisplayLayout(ctx context.Context, w io.Writer, r render.Renderer, opts render.Options) error {
	scene := render.Scene{
		Positions: e.Positions(),
		Edges:     e.g.Edges(),
		Options:   opts,
	}
	if err := r.Render(ctx, w, scene); err != nil {
		return fmt.Errorf("display layout: %w", err)
	}
	return nil
}

// Snapshot captures the current positions.
func (e *Engine) Snapshot() snapshot.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot.Snapshot{
		RunID:     e.runID,
		Iteration: e.iterations,
		CreatedAt: time.Now().UTC(),
		Positions: copyPositions(e.positions),
	}
}

// Restore replaces the positions with those of s, which must match the
// engine's vertex count and dimension and be finite.
func (e *Engine) Restore(s snapshot.Snapshot) error {
	if len(s.Positions) != e.g.N() {
		return graph.NewError("layout.Restore").Param("vertices", len(s.Positions)).Cause(ErrInvalidParameter).Err()
	}
	for v, row := range s.Positions {
		if len(row) != e.params.Dimension {
			return graph.NewError("layout.Restore").Param("dimension", len(row)).Cause(ErrInvalidParameter).Err()
		}
		for _, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return graph.NewError("layout.Restore").Detail("vertex %d is not finite", v).Cause(ErrInvalidParameter).Err()
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions = copyPositions(s.Positions)
	e.iterations = s.Iteration
	if s.RunID != uuid.Nil {
		e.runID = s.RunID
	}
	return nil
}

// Close releases the worker pool if the engine created it. Positions stay
// readable afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.ownsPool {
		e.pool.Close()
	}
	return nil
}
