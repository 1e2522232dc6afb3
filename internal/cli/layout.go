package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/render"
	"github.com/dd0wney/graphem/pkg/seeds"
	"github.com/dd0wney/graphem/pkg/snapshot"
)

type layoutOpts struct {
	src           graphSource
	iterations    int
	snapshotEvery int
	resume        string
	output        string
	renderPath    string
	title         string
	highlight     int
}

func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Embed a graph and write positions, snapshots or a drawing",
		Example: `  graphem layout -g watts_strogatz --n 500 --iterations 100 --render ws.svg
  graphem layout --dataset facebook_combined --largest-component --output positions.json
  graphem layout --edges graph.txt --resume <run-id>/000100.gems --iterations 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("iterations") {
				c.cfg.Run.Iterations = opts.iterations
			}
			if cmd.Flags().Changed("snapshot-every") {
				c.cfg.Run.SnapshotEvery = opts.snapshotEvery
			}
			return c.runLayout(cmd.Context(), opts)
		},
	}

	opts.src.register(cmd.Flags())
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "i", 40, "layout iterations")
	cmd.Flags().IntVar(&opts.snapshotEvery, "snapshot-every", 0, "snapshot every N iterations (needs a snapshot store)")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "snapshot key to restore before running")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write positions as JSON to this file")
	cmd.Flags().StringVarP(&opts.renderPath, "render", "r", "", "draw the layout to this file (.svg, .png, .dot, .json or .txt)")
	cmd.Flags().StringVar(&opts.title, "title", "", "drawing title")
	cmd.Flags().IntVar(&opts.highlight, "highlight", 0, "enlarge the N most central vertices in the drawing")
	return cmd
}

// positionsFile is the JSON written by --output.
type positionsFile struct {
	RunID      string      `json:"run_id"`
	Seed       uint64      `json:"seed"`
	Iterations int         `json:"iterations"`
	Dimension  int         `json:"dimension"`
	Positions  [][]float64 `json:"positions"`
}

func (c *CLI) runLayout(ctx context.Context, opts layoutOpts) error {
	g, err := opts.src.load(c.logger)
	if err != nil {
		return err
	}
	e, err := c.newEngine(g)
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	if opts.resume != "" {
		if store == nil {
			return errors.New("--resume needs a snapshot store")
		}
		snap, err := store.Get(ctx, opts.resume)
		if err != nil {
			return err
		}
		if err := e.Restore(snap); err != nil {
			return err
		}
		c.logger.Info("snapshot restored", logging.String("key", opts.resume), logging.Iteration(snap.Iteration))
	}

	if err := c.iterate(ctx, e, store, c.cfg.Run.Iterations); err != nil {
		return err
	}
	if store != nil {
		if err := c.save(ctx, e, store); err != nil {
			return err
		}
	}

	if opts.output != "" {
		if err := writePositions(opts.output, e); err != nil {
			return err
		}
	}
	if opts.renderPath != "" {
		if err := c.drawTo(ctx, e, opts); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "run %s: %d vertices, %d edges, %d iterations (seed %d)\n",
		e.RunID(), g.N(), g.M(), e.Iterations(), e.Seed())
	return nil
}

// iterate runs the layout in chunks of SnapshotEvery, saving after each,
// and stops early when ctx is cancelled.
func (c *CLI) iterate(ctx context.Context, e *layout.Engine, store snapshot.Store, total int) error {
	chunk := total
	if store != nil && c.cfg.Run.SnapshotEvery > 0 {
		chunk = c.cfg.Run.SnapshotEvery
	}
	if chunk <= 0 {
		return nil
	}
	for done := 0; done < total; done += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.RunLayout(min(chunk, total-done)); err != nil {
			return err
		}
		if store != nil && chunk < total && done+chunk < total {
			if err := c.save(ctx, e, store); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *CLI) save(ctx context.Context, e *layout.Engine, store snapshot.Store) error {
	snap := e.Snapshot()
	key := snapshot.Key(snap)
	n, err := store.Put(ctx, key, snap)
	if err != nil {
		return err
	}
	c.logger.Info("snapshot saved", logging.String("key", key), logging.Int("bytes", n))
	return nil
}

func writePositions(path string, e *layout.Engine) error {
	pos := e.Positions()
	dim := 0
	if len(pos) > 0 {
		dim = len(pos[0])
	}
	data, err := json.MarshalIndent(positionsFile{
		RunID:      e.RunID().String(),
		Seed:       e.Seed(),
		Iterations: e.Iterations(),
		Dimension:  dim,
		Positions:  pos,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// formatFor maps a file extension to a render format.
func formatFor(path string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext {
	case "txt":
		return "terminal"
	case "gv":
		return "dot"
	default:
		return ext
	}
}

func (c *CLI) drawTo(ctx context.Context, e *layout.Engine, opts layoutOpts) error {
	r, err := render.New(formatFor(opts.renderPath))
	if err != nil {
		return err
	}
	ro := render.DefaultOptions()
	ro.Title = opts.title
	if opts.highlight > 0 {
		sizes := make([]float64, e.Graph().N())
		for v := range sizes {
			sizes[v] = ro.NodeSize
		}
		for _, v := range seeds.SelectFromEngine(e, opts.highlight) {
			sizes[v] = 2 * ro.NodeSize
		}
		ro.NodeSizes = sizes
	}

	f, err := os.Create(opts.renderPath)
	if err != nil {
		return err
	}
	if err := e.DisplayLayout(ctx, f, r, ro); err != nil {
		f.Close()
		return err
	}
	c.logger.Info("layout drawn", logging.Path(opts.renderPath))
	return f.Close()
}
