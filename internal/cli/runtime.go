package cli

import (
	"context"
	"fmt"

	"github.com/dd0wney/graphem/pkg/config"
	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/snapshot"
)

// engineOptions turns the run and index sections into engine options.
func (c *CLI) engineOptions() []layout.Option {
	opts := []layout.Option{
		layout.WithLogger(c.logger),
		layout.WithMetrics(c.metrics),
		layout.WithIndexKind(c.cfg.Index.Kind),
		layout.WithVerbose(c.cfg.Run.Verbose),
	}
	if c.cfg.Run.Seed != 0 {
		opts = append(opts, layout.WithSeed(c.cfg.Run.Seed))
	}
	if c.cfg.Run.Workers > 1 {
		opts = append(opts, layout.WithWorkers(c.cfg.Run.Workers))
	}
	return opts
}

func (c *CLI) newEngine(g *graph.Graph) (*layout.Engine, error) {
	return layout.New(g, c.cfg.Layout, c.engineOptions()...)
}

// openStore builds the configured snapshot store, or nil when none is set.
func (c *CLI) openStore(ctx context.Context) (snapshot.Store, error) {
	sc := c.cfg.Snapshot
	codec, err := snapshot.ParseCodec(sc.Codec)
	if err != nil {
		return nil, err
	}

	var store snapshot.Store
	switch sc.Store {
	case config.StoreNone, "":
		return nil, nil
	case config.StoreFile:
		store, err = snapshot.NewFileStore(sc.Path, codec)
	case config.StoreS3:
		client, derr := snapshot.DialS3(ctx, snapshot.S3Options{
			Region:    sc.Region,
			Endpoint:  sc.Endpoint,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
		})
		if derr != nil {
			return nil, derr
		}
		store = snapshot.NewS3Store(client, sc.Bucket, sc.Prefix, codec)
	case config.StoreMinio:
		client, derr := snapshot.DialMinio(snapshot.MinioOptions{
			Endpoint:  sc.Endpoint,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
			UseSSL:    sc.UseSSL,
		})
		if derr != nil {
			return nil, derr
		}
		ms := snapshot.NewMinioStore(client, sc.Bucket, sc.Prefix, codec)
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		store = ms
	case config.StoreRedis:
		client, derr := snapshot.DialRedis(ctx, sc.Endpoint, sc.SecretKey)
		if derr != nil {
			return nil, derr
		}
		namespace := sc.Prefix
		if namespace == "" {
			namespace = "graphem"
		}
		store = snapshot.NewRedisStore(client, namespace, codec, 0)
	default:
		return nil, fmt.Errorf("unknown snapshot store %q", sc.Store)
	}
	if err != nil {
		return nil, err
	}
	return snapshot.Instrument(store, sc.Store, codec, c.metrics), nil
}
