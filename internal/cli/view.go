package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/internal/viewer"
)

func (c *CLI) viewCommand() *cobra.Command {
	var (
		src  graphSource
		opts = viewer.Options{Steps: 1, Interval: 100 * time.Millisecond, SeedCount: 5}
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Watch the layout converge in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The viewer owns the terminal, so logs are dropped.
			c.cfg.Run.Verbose = false
			g, err := src.load(c.logger)
			if err != nil {
				return err
			}
			e, err := c.newEngine(g)
			if err != nil {
				return err
			}
			defer e.Close()
			return viewer.Run(e, opts)
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().IntVar(&opts.Steps, "steps", opts.Steps, "iterations per frame")
	cmd.Flags().DurationVar(&opts.Interval, "interval", opts.Interval, "pause between frames")
	cmd.Flags().IntVar(&opts.SeedCount, "seeds", opts.SeedCount, "central vertices marked with s")
	cmd.Flags().StringVar(&opts.Title, "title", "graphem", "title line")
	return cmd
}
