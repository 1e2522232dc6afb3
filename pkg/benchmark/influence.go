package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/influence"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/seeds"
)

// Seed selection methods compared by Influence.
const (
	MethodGraphem = "graphem"
	MethodGreedy  = "greedy"
	MethodRandom  = "random"
)

// InfluenceConfig configures the seed selection comparison.
type InfluenceConfig struct {
	Layout Config
	K      int
	Spread influence.Config
	// Methods defaults to graphem, greedy and random
	Methods []string
}

// InfluenceRow reports one method's seeds and their estimated spread.
type InfluenceRow struct {
	Method string             `json:"method"`
	Seeds  []int              `json:"seeds"`
	Spread influence.Estimate `json:"spread"`
	// Runtime covers seed selection only
	Runtime     time.Duration `json:"runtime"`
	Evaluations int           `json:"evaluations,omitempty"`
}

// Influence selects k seeds with every method and estimates each set's
// spread with the same random streams.
func Influence(ctx context.Context, g *graph.Graph, cfg InfluenceConfig) ([]InfluenceRow, error) {
	log := cfg.Layout.logger()
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = []string{MethodGraphem, MethodGreedy, MethodRandom}
	}

	rows := make([]InfluenceRow, 0, len(methods))
	for _, method := range methods {
		row := InfluenceRow{Method: method}
		start := time.Now()
		switch method {
		case MethodGraphem:
			e, err := cfg.Layout.engine(g)
			if err != nil {
				return nil, err
			}
			err = e.RunLayout(cfg.Layout.Iterations)
			if err == nil {
				row.Seeds = seeds.SelectFromEngine(e, cfg.K)
			}
			e.Close()
			if err != nil {
				return nil, fmt.Errorf("graphem seeds: %w", err)
			}
		case MethodGreedy:
			res, err := influence.Greedy(ctx, g, cfg.K, cfg.Spread)
			if err != nil {
				return nil, fmt.Errorf("greedy seeds: %w", err)
			}
			row.Seeds, row.Evaluations = res.Seeds, res.Evaluations
		case MethodRandom:
			rng := rand.New(rand.NewPCG(cfg.Layout.Seed, cfg.Spread.Seed))
			row.Seeds = influence.Random(g, cfg.K, rng)
		default:
			return nil, fmt.Errorf("unknown seed selection method %q", method)
		}
		row.Runtime = time.Since(start)

		est, err := influence.Spread(ctx, g, row.Seeds, cfg.Spread)
		if err != nil {
			return nil, fmt.Errorf("%s spread: %w", method, err)
		}
		row.Spread = est

		if m := cfg.Layout.Metrics; m != nil {
			m.RecordSeedSelection(method)
			m.RecordInfluenceSimulations(cfg.Spread.Trials * (row.Evaluations + 1))
		}
		log.Info("seed selection evaluated",
			logging.String("method", method),
			logging.Count(len(row.Seeds)),
			logging.Float64("spread", est.Mean),
			logging.Latency(row.Runtime),
		)
		rows = append(rows, row)
	}
	return rows, nil
}
