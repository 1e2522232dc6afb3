package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/pkg/seeds"
)

func (c *CLI) seedsCommand() *cobra.Command {
	var (
		src        graphSource
		k          int
		iterations int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "Select the k most central vertices of the embedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("iterations") {
				c.cfg.Run.Iterations = iterations
			}
			g, err := src.load(c.logger)
			if err != nil {
				return err
			}
			picked, err := seeds.GraphemSeeds(g, c.cfg.Layout, k, c.cfg.Run.Iterations, c.engineOptions()...)
			if err != nil {
				return err
			}
			c.metrics.RecordSeedSelection("graphem")

			if asJSON {
				return json.NewEncoder(c.out).Encode(struct {
					K     int   `json:"k"`
					Seeds []int `json:"seeds"`
				}{k, picked})
			}
			strs := make([]string, len(picked))
			for i, v := range picked {
				strs[i] = fmt.Sprint(v)
			}
			_, err = fmt.Fprintln(c.out, strings.Join(strs, " "))
			return err
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().IntVarP(&k, "k", "k", 10, "number of seeds")
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 40, "layout iterations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
