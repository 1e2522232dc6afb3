package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/pkg/config"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/render"
	"github.com/dd0wney/graphem/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		src  graphSource
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one layout engine over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			g, err := src.load(c.logger)
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
			srv := server.New(e, server.Options{
				Logger:        c.logger,
				Metrics:       c.metrics,
				Store:         store,
				MaxIterations: c.cfg.Server.MaxIterations,
				Render:        render.DefaultOptions(),
			})
			c.metrics.SetGraphSize(g.N(), g.M())

			c.logger.Info("serving", logging.String("addr", c.cfg.Server.Addr), logging.String("run_id", e.RunID().String()))
			err = srv.Run(ctx, c.cfg.Server.Addr, c.cfg.Server.ShutdownTimeout, c.reload)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// reload re-reads the config file and applies the settings that can change
// without a restart.
func (c *CLI) reload() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	c.logger.SetLevel(logging.ParseLevel(level))
	c.logger.Info("config reloaded", logging.String("level", level))
	return nil
}
