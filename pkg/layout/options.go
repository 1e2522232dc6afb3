package layout

import (
	"math/rand/v2"

	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/metrics"
	"github.com/dd0wney/graphem/pkg/parallel"
	"github.com/dd0wney/graphem/pkg/spatial"
)

type engineOptions struct {
	seed      uint64
	seeded    bool
	rng       *rand.Rand
	index     spatial.Index
	indexKind string
	logger    logging.Logger
	metrics   *metrics.Registry
	workers   int
	pool      *parallel.WorkerPool
	verbose   bool
	initScale float64
	maxStep   float64
	epsilon   float64
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithSeed fixes the random source used for initialization and sampling.
func WithSeed(seed uint64) Option {
	return func(o *engineOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRand injects the random source directly. It takes precedence over
// WithSeed. The engine becomes the only user of rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *engineOptions) { o.rng = rng }
}

// WithIndex replaces the spatial index strategy.
func WithIndex(idx spatial.Index) Option {
	return func(o *engineOptions) { o.index = idx }
}

// WithIndexKind selects a built-in spatial index by name (see spatial.Kinds).
func WithIndexKind(kind string) Option {
	return func(o *engineOptions) { o.indexKind = kind }
}

func WithLogger(l logging.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

func WithMetrics(r *metrics.Registry) Option {
	return func(o *engineOptions) { o.metrics = r }
}

// WithWorkers runs force computation on n lanes using a pool owned by the
// engine. n <= 1 keeps everything on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *engineOptions) { o.workers = n }
}

// WithPool shares an existing pool. The engine does not close it.
func WithPool(p *parallel.WorkerPool) Option {
	return func(o *engineOptions) { o.pool = p }
}

// WithVerbose enables rate-limited progress logging at info level.
func WithVerbose(v bool) Option {
	return func(o *engineOptions) { o.verbose = v }
}

// WithInitScale sets the half-width of the initial bounding box.
func WithInitScale(h float64) Option {
	return func(o *engineOptions) { o.initScale = h }
}

// WithMaxStep sets the clamp applied to every force and displacement.
func WithMaxStep(s float64) Option {
	return func(o *engineOptions) { o.maxStep = s }
}

// WithEpsilon sets the distance floor used by repulsion.
func WithEpsilon(eps float64) Option {
	return func(o *engineOptions) { o.epsilon = eps }
}
