// Package cli implements the graphem command line: layout, seed selection,
// benchmarks, the live viewer and the HTTP server.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/pkg/config"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/metrics"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build information injected through ldflags.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

// CLI carries the state shared by every subcommand.
type CLI struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool

	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// New returns a CLI writing results to out and logs to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{
		out:     out,
		errOut:  errOut,
		cfg:     config.Default(),
		logger:  logging.NewNopLogger(),
		metrics: metrics.NewRegistry(),
	}
}

// RootCommand assembles the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "graphem",
		Short: "Force-directed graph embedding and radial seed selection",
		Long: `graphem embeds graphs with a sampled force-directed layout and ranks
vertices by their distance from the centre of the embedding, which tracks
centrality closely and makes a cheap influence-maximization heuristic.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetVersionTemplate(fmt.Sprintf("graphem %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging and progress output")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.seedsCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.datasetsCommand())
	return root
}

// Execute runs the command line with args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *CLI) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.verbose {
		cfg.Log.Level = "debug"
		cfg.Run.Verbose = true
	}
	c.cfg = cfg
	c.logger = logging.New(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), c.errOut)
	logging.SetDefaultLogger(c.logger)
	return nil
}
