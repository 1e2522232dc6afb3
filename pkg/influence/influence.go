// Package influence estimates the spread of seed sets under the independent
// cascade model and provides the greedy and random baselines the layout
// seeds are compared against.
package influence

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/validation"
)

// ErrInvalidConfig is returned for an unusable simulation configuration.
var ErrInvalidConfig = errors.New("influence: invalid configuration")

// Config controls Monte-Carlo estimation.
type Config struct {
	// P is the activation probability of every edge
	P float64 `json:"p" yaml:"p"`
	// Steps bounds the cascade length; 0 runs until no vertex activates
	Steps int `json:"steps" yaml:"steps"`
	// Trials is the number of independent cascades averaged
	Trials int `json:"trials" yaml:"trials"`
	Seed   uint64 `json:"seed" yaml:"seed"`
	// Workers caps concurrent trials; 0 means GOMAXPROCS
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig mirrors the usual benchmark setting.
func DefaultConfig() Config {
	return Config{P: 0.1, Steps: 200, Trials: 100, Seed: 1}
}

func (c Config) validate() error {
	err := validation.NewConfigValidator("influence").
		RangeFloat("p", c.P, 0, 1).
		NonNegative("steps", c.Steps).
		Positive("trials", c.Trials).
		NonNegative("workers", c.Workers).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Simulate runs one independent cascade from seeds and returns the number
// of activated vertices. Each newly active vertex gets a single chance to
// activate each inactive neighbour with probability p.
func Simulate(g *graph.Graph, seeds []int, p float64, steps int, rng *rand.Rand) int {
	active := roaring.New()
	frontier := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if s >= 0 && s < g.N() && active.CheckedAdd(uint32(s)) {
			frontier = append(frontier, s)
		}
	}

	var next []int
	for step := 0; len(frontier) > 0 && (steps == 0 || step < steps); step++ {
		next = next[:0]
		for _, v := range frontier {
			for _, w := range g.Neighbors(v) {
				if active.Contains(uint32(w)) {
					continue
				}
				if rng.Float64() < p {
					active.Add(uint32(w))
					next = append(next, w)
				}
			}
		}
		frontier, next = next, frontier
	}
	return int(active.GetCardinality())
}

// Estimate is the result of a Monte-Carlo spread estimate.
type Estimate struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Trials int     `json:"trials"`
}

// Spread estimates the expected cascade size of seeds. Trial i always uses
// the random stream (cfg.Seed, i), so the result does not depend on
// scheduling.
func Spread(ctx context.Context, g *graph.Graph, seeds []int, cfg Config) (Estimate, error) {
	if err := cfg.validate(); err != nil {
		return Estimate{}, err
	}
	sizes := make([]int, cfg.Trials)

	eg, ctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(workers)
	for i := range sizes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
			sizes[i] = Simulate(g, seeds, cfg.P, cfg.Steps, rng)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Estimate{}, err
	}

	data := make(stats.Float64Data, len(sizes))
	for i, s := range sizes {
		data[i] = float64(s)
	}
	mean, err := data.Mean()
	if err != nil {
		return Estimate{}, err
	}
	sd, err := data.StandardDeviationPopulation()
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Mean:   mean,
		StdDev: sd,
		Trials: len(sizes),
	}, nil
}

// Random picks k distinct vertices uniformly.
func Random(g *graph.Graph, k int, rng *rand.Rand) []int {
	k = max(0, min(k, g.N()))
	perm := rng.Perm(g.N())
	return perm[:k:k]
}

// GreedyResult reports the chosen seeds and how many spread estimates the
// selection needed.
type GreedyResult struct {
	Seeds       []int `json:"seeds"`
	Evaluations int   `json:"evaluations"`
}

type gain struct {
	vertex int
	value  float64
	round  int
}

// gainHeap is a max-heap on marginal gain, ties to the lower vertex.
type gainHeap []gain

func (h gainHeap) Len() int { return len(h) }
func (h gainHeap) Less(i, j int) bool {
	if h[i].value != h[j].value {
		return h[i].value > h[j].value
	}
	return h[i].vertex < h[j].vertex
}
func (h gainHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *gainHeap) Push(x any)   { *h = append(*h, x.(gain)) }
func (h *gainHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Greedy builds a seed set of size k by repeatedly adding the vertex with
// the largest estimated marginal spread. Stale gains are re-evaluated lazily
// (CELF), which is exact because spread is submodular.
func Greedy(ctx context.Context, g *graph.Graph, k int, cfg Config) (GreedyResult, error) {
	if err := cfg.validate(); err != nil {
		return GreedyResult{}, err
	}
	k = max(0, min(k, g.N()))
	res := GreedyResult{Seeds: make([]int, 0, k)}
	if k == 0 {
		return res, nil
	}

	h := make(gainHeap, 0, g.N())
	for v := 0; v < g.N(); v++ {
		est, err := Spread(ctx, g, []int{v}, cfg)
		if err != nil {
			return GreedyResult{}, err
		}
		res.Evaluations++
		h = append(h, gain{vertex: v, value: est.Mean})
	}
	heap.Init(&h)

	current := 0.0
	for len(res.Seeds) < k {
		top := heap.Pop(&h).(gain)
		if top.round == len(res.Seeds) {
			res.Seeds = append(res.Seeds, top.vertex)
			current += top.value
			continue
		}
		est, err := Spread(ctx, g, append(res.Seeds, top.vertex), cfg)
		if err != nil {
			return GreedyResult{}, err
		}
		res.Evaluations++
		top.value = est.Mean - current
		top.round = len(res.Seeds)
		heap.Push(&h, top)
	}
	return res, nil
}
