// Package benchmark reproduces the embedding studies: how well the radial
// position of a vertex tracks its centrality, and how layout-derived seeds
// compare with greedy and random seeds for influence maximization.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/graphem/pkg/centrality"
	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/metrics"
	"github.com/dd0wney/graphem/pkg/seeds"
	"github.com/dd0wney/graphem/pkg/stats"
)

// Centrality measure names, in report order.
const (
	MeasureDegree      = "degree"
	MeasureBetweenness = "betweenness"
	MeasureEigenvector = "eigenvector"
	MeasurePageRank    = "pagerank"
	MeasureCloseness   = "closeness"
	MeasureLoad        = "load"
)

// Measures lists every centrality computed by Run.
var Measures = []string{
	MeasureDegree,
	MeasureBetweenness,
	MeasureEigenvector,
	MeasurePageRank,
	MeasureCloseness,
	MeasureLoad,
}

// Config describes one layout run.
type Config struct {
	Params     layout.Params
	Iterations int
	Seed       uint64
	Index      string
	Workers    int
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

// DefaultConfig uses the default parameters and 40 iterations.
func DefaultConfig() Config {
	return Config{Params: layout.DefaultParams(), Iterations: 40, Seed: 1}
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.NewNopLogger()
	}
	return c.Logger.With(logging.Component("benchmark"))
}

func (c Config) engine(g *graph.Graph) (*layout.Engine, error) {
	opts := []layout.Option{layout.WithSeed(c.Seed), layout.WithLogger(c.Logger)}
	if c.Index != "" {
		opts = append(opts, layout.WithIndexKind(c.Index))
	}
	if c.Workers > 1 {
		opts = append(opts, layout.WithWorkers(c.Workers))
	}
	if c.Metrics != nil {
		opts = append(opts, layout.WithMetrics(c.Metrics))
	}
	return layout.New(g, c.Params, opts...)
}

// Result holds the layout outcome and every centrality of one graph.
type Result struct {
	Vertices     int                  `json:"vertices"`
	Edges        int                  `json:"edges"`
	Dimension    int                  `json:"dimension"`
	Iterations   int                  `json:"iterations"`
	LayoutTime   time.Duration        `json:"layout_time"`
	Positions    [][]float64          `json:"positions"`
	Radii        []float64            `json:"radii"`
	Centralities map[string][]float64 `json:"centralities"`
}

// Run lays g out and computes the centralities alongside. The centralities
// run concurrently with each other once the layout has finished.
func Run(ctx context.Context, g *graph.Graph, cfg Config) (*Result, error) {
	log := cfg.logger()

	e, err := cfg.engine(g)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	start := time.Now()
	if err := e.RunLayout(cfg.Iterations); err != nil {
		return nil, fmt.Errorf("benchmark layout: %w", err)
	}
	res := &Result{
		Vertices:   g.N(),
		Edges:      g.M(),
		Dimension:  e.Params().Dimension,
		Iterations: cfg.Iterations,
		LayoutTime: time.Since(start),
		Positions:  e.Positions(),
	}
	res.Radii = seeds.Radii(res.Positions)

	res.Centralities, err = Centralities(ctx, g, log)
	if err != nil {
		return nil, err
	}
	log.Info("benchmark run complete",
		logging.Vertices(g.N()),
		logging.Edges(g.M()),
		logging.Duration("layout_time", res.LayoutTime),
	)
	return res, nil
}

// Centralities computes every entry of Measures. Eigenvector centrality
// falls back to degree when power iteration does not converge.
func Centralities(ctx context.Context, g *graph.Graph, log logging.Logger) (map[string][]float64, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	compute := map[string]func() ([]float64, error){
		MeasureDegree:      func() ([]float64, error) { return centrality.Degree(g), nil },
		MeasureBetweenness: func() ([]float64, error) { return centrality.Betweenness(g), nil },
		MeasureCloseness:   func() ([]float64, error) { return centrality.Closeness(g), nil },
		MeasureLoad:        func() ([]float64, error) { return centrality.Load(g), nil },
		MeasurePageRank: func() ([]float64, error) {
			return centrality.PageRank(g, centrality.DefaultPageRankOptions()).Scores, nil
		},
		MeasureEigenvector: func() ([]float64, error) {
			scores, err := centrality.Eigenvector(g, 1000, 1e-6)
			if errors.Is(err, centrality.ErrNotConverged) {
				log.Warn("eigenvector centrality did not converge, using degree")
				return centrality.Degree(g), nil
			}
			return scores, err
		},
	}

	var mu sync.Mutex
	out := make(map[string][]float64, len(compute))
	eg, ctx := errgroup.WithContext(ctx)
	for _, name := range Measures {
		fn := compute[name]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			scores, err := fn()
			if err != nil {
				return fmt.Errorf("%s centrality: %w", name, err)
			}
			log.Debug("centrality computed", logging.String("measure", name), logging.Latency(time.Since(start)))
			mu.Lock()
			out[name] = scores
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CorrelationRow is the rank correlation between radius and one measure.
type CorrelationRow struct {
	Measure string `json:"measure"`
	stats.Correlation
}

// Correlations correlates the radii of r with each centrality. Central
// vertices sit near the middle of the layout, so a good embedding shows
// strongly negative rho.
func Correlations(r *Result) ([]CorrelationRow, error) {
	rows := make([]CorrelationRow, 0, len(Measures))
	for _, name := range Measures {
		scores, ok := r.Centralities[name]
		if !ok {
			continue
		}
		c, err := stats.Spearman(r.Radii, scores)
		if err != nil {
			return nil, fmt.Errorf("correlate %s: %w", name, err)
		}
		rows = append(rows, CorrelationRow{Measure: name, Correlation: c})
	}
	return rows, nil
}
