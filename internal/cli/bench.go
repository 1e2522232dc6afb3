package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/pkg/benchmark"
	"github.com/dd0wney/graphem/pkg/influence"
)

func (c *CLI) benchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare embedding radii with centralities or influence heuristics",
	}
	cmd.AddCommand(c.benchCorrCommand())
	cmd.AddCommand(c.benchInfluenceCommand())
	return cmd
}

func (c *CLI) benchConfig() benchmark.Config {
	return benchmark.Config{
		Params:     c.cfg.Layout,
		Iterations: c.cfg.Run.Iterations,
		Seed:       c.cfg.Run.Seed,
		Index:      c.cfg.Index.Kind,
		Workers:    c.cfg.Run.Workers,
		Logger:     c.logger,
		Metrics:    c.metrics,
	}
}

func (c *CLI) benchCorrCommand() *cobra.Command {
	var (
		src        graphSource
		iterations int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "corr",
		Short: "Correlate radial distance with centrality measures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("iterations") {
				c.cfg.Run.Iterations = iterations
			}
			g, err := src.load(c.logger)
			if err != nil {
				return err
			}
			res, err := benchmark.Run(cmd.Context(), g, c.benchConfig())
			if err != nil {
				return err
			}
			rows, err := benchmark.Correlations(res)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(c.out).Encode(rows)
			}
			if err := benchmark.WriteSummary(c.out, res); err != nil {
				return err
			}
			return benchmark.WriteCorrelations(c.out, rows)
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 40, "layout iterations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) benchInfluenceCommand() *cobra.Command {
	var (
		src        graphSource
		iterations int
		k          int
		spread     = influence.DefaultConfig()
		methods    []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "influence",
		Short: "Compare graphem, greedy and random seeds under independent cascade",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("iterations") {
				c.cfg.Run.Iterations = iterations
			}
			g, err := src.load(c.logger)
			if err != nil {
				return err
			}
			rows, err := benchmark.Influence(cmd.Context(), g, benchmark.InfluenceConfig{
				Layout:  c.benchConfig(),
				K:       k,
				Spread:  spread,
				Methods: methods,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(c.out).Encode(rows)
			}
			return benchmark.WriteInfluence(c.out, rows)
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 40, "layout iterations")
	cmd.Flags().IntVarP(&k, "k", "k", 10, "seed set size")
	cmd.Flags().Float64Var(&spread.P, "prob", spread.P, "activation probability")
	cmd.Flags().IntVar(&spread.Steps, "steps", spread.Steps, "cascade steps (0 for unbounded)")
	cmd.Flags().IntVar(&spread.Trials, "trials", spread.Trials, "Monte Carlo trials")
	cmd.Flags().Uint64Var(&spread.Seed, "sim-seed", spread.Seed, "random seed for the simulations")
	cmd.Flags().IntVar(&spread.Workers, "sim-workers", 0, "concurrent simulations (0 for GOMAXPROCS)")
	cmd.Flags().StringSliceVar(&methods, "methods", nil, "methods to compare (graphem, greedy, random)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
