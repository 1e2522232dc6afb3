// Package config loads graphem settings from YAML or TOML files with
// GRAPHEM_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/snapshot"
	"github.com/dd0wney/graphem/pkg/spatial"
	"github.com/dd0wney/graphem/pkg/validation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAPHEM_"

// ErrUnsupportedFormat is returned for a config file that is neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Snapshot store kinds.
const (
	StoreNone  = "none"
	StoreFile  = "file"
	StoreS3    = "s3"
	StoreMinio = "minio"
	StoreRedis = "redis"
)

// MaxShutdownTimeout bounds server.shutdown_timeout.
const MaxShutdownTimeout = 10 * time.Minute

// Stores lists the snapshot store kinds.
func Stores() []string {
	return []string{StoreNone, StoreFile, StoreS3, StoreMinio, StoreRedis}
}

// Config is the complete graphem configuration.
type Config struct {
	Layout   layout.Params  `json:"layout" yaml:"layout" toml:"layout"`
	Index    IndexConfig    `json:"index" yaml:"index" toml:"index"`
	Run      RunConfig      `json:"run" yaml:"run" toml:"run"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot" toml:"snapshot"`
	Server   ServerConfig   `json:"server" yaml:"server" toml:"server"`
	Log      LogConfig      `json:"log" yaml:"log" toml:"log"`
}

// IndexConfig selects the spatial index.
type IndexConfig struct {
	Kind string `json:"kind" yaml:"kind" toml:"kind"`
}

// RunConfig controls a layout run.
type RunConfig struct {
	Iterations int    `json:"iterations" yaml:"iterations" toml:"iterations"`
	Seed       uint64 `json:"seed" yaml:"seed" toml:"seed"`
	// Workers above 1 enables parallel force lanes
	Workers int  `json:"workers" yaml:"workers" toml:"workers"`
	Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose"`
	// SnapshotEvery writes a snapshot every N iterations when a store is set
	SnapshotEvery int `json:"snapshot_every" yaml:"snapshot_every" toml:"snapshot_every"`
}

// SnapshotConfig selects where and how snapshots are stored.
type SnapshotConfig struct {
	Store    string `json:"store" yaml:"store" toml:"store"`
	Codec    string `json:"codec" yaml:"codec" toml:"codec"`
	Path     string `json:"path" yaml:"path" toml:"path"`
	Bucket   string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix   string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Region   string `json:"region" yaml:"region" toml:"region"`
	// AccessKey and SecretKey are usually supplied through the environment
	AccessKey string `json:"-" yaml:"access_key" toml:"access_key"`
	SecretKey string `json:"-" yaml:"secret_key" toml:"secret_key"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl" toml:"use_ssl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	// MaxIterations caps a single POST /v1/run request
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" toml:"max_iterations"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Layout: layout.DefaultParams(),
		Index:  IndexConfig{Kind: spatial.KindKDTree},
		Run:    RunConfig{Iterations: 40},
		Snapshot: SnapshotConfig{
			Store:  StoreNone,
			Codec:  snapshot.CodecZstd.String(),
			Path:   "snapshots",
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
			MaxIterations:   10000,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path on top of Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(&cfg, filepath.Ext(path), data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses data into cfg according to the file extension. Unknown
// keys are rejected.
func Decode(cfg *Config, ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("parse toml: unknown keys %v", undecoded)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// Validate checks field ranges and the combinations between sections.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := validation.Struct(&c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return validation.NewConfigValidator("Config").
		OneOf("Index.Kind", c.Index.Kind, spatial.Kinds()).
		NonNegative("Run.Iterations", c.Run.Iterations).
		NonNegative("Run.Workers", c.Run.Workers).
		NonNegative("Run.SnapshotEvery", c.Run.SnapshotEvery).
		OneOf("Snapshot.Store", c.Snapshot.Store, Stores()).
		OneOf("Snapshot.Codec", c.Snapshot.Codec, snapshot.CodecNames()).
		Positive("Server.MaxIterations", c.Server.MaxIterations).
		RangeDuration("Server.ShutdownTimeout", c.Server.ShutdownTimeout, 0, MaxShutdownTimeout).
		OneOf("Log.Level", c.Log.Level, []string{"debug", "info", "warn", "warning", "error"}).
		OneOf("Log.Format", c.Log.Format, []string{"json", "console", "text"}).
		When(c.Snapshot.Store == StoreFile, func(cv *validation.ConfigValidator) {
			cv.Custom("Snapshot.Path", requireSet(c.Snapshot.Path))
		}).
		When(c.Snapshot.Store == StoreS3 || c.Snapshot.Store == StoreMinio, func(cv *validation.ConfigValidator) {
			cv.Custom("Snapshot.Bucket", requireSet(c.Snapshot.Bucket))
		}).
		When(c.Snapshot.Store == StoreMinio || c.Snapshot.Store == StoreRedis, func(cv *validation.ConfigValidator) {
			cv.Custom("Snapshot.Endpoint", requireSet(c.Snapshot.Endpoint))
		}).
		When(c.Run.SnapshotEvery > 0, func(cv *validation.ConfigValidator) {
			cv.Custom("Run.SnapshotEvery", func() error {
				if c.Snapshot.Store == StoreNone {
					return errors.New("requires a snapshot store")
				}
				return nil
			})
		}).
		Validate()
}

func requireSet(v string) func() error {
	return func() error {
		if v == "" {
			return errors.New("must be set")
		}
		return nil
	}
}

// ApplyEnv overrides fields from GRAPHEM_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	atoi := func(dst *int) func(string) error {
		return func(s string) (err error) {
			*dst, err = strconv.Atoi(s)
			return err
		}
	}
	atof := func(dst *float64) func(string) error {
		return func(s string) (err error) {
			*dst, err = strconv.ParseFloat(s, 64)
			return err
		}
	}

	num("L_MIN", atof(&c.Layout.LMin))
	num("K_ATTR", atof(&c.Layout.KAttr))
	num("K_INTER", atof(&c.Layout.KInter))
	num("KNN_K", atoi(&c.Layout.KNNK))
	num("SAMPLE_SIZE", atoi(&c.Layout.SampleSize))
	num("BATCH_SIZE", atoi(&c.Layout.BatchSize))
	num("DIMENSION", atoi(&c.Layout.Dimension))
	str("INDEX", &c.Index.Kind)
	num("ITERATIONS", atoi(&c.Run.Iterations))
	num("WORKERS", atoi(&c.Run.Workers))
	num("SEED", func(s string) (err error) {
		c.Run.Seed, err = strconv.ParseUint(s, 10, 64)
		return err
	})
	num("VERBOSE", func(s string) (err error) {
		c.Run.Verbose, err = strconv.ParseBool(s)
		return err
	})
	str("SNAPSHOT_STORE", &c.Snapshot.Store)
	str("SNAPSHOT_CODEC", &c.Snapshot.Codec)
	str("SNAPSHOT_PATH", &c.Snapshot.Path)
	str("SNAPSHOT_BUCKET", &c.Snapshot.Bucket)
	str("SNAPSHOT_ENDPOINT", &c.Snapshot.Endpoint)
	str("SNAPSHOT_ACCESS_KEY", &c.Snapshot.AccessKey)
	str("SNAPSHOT_SECRET_KEY", &c.Snapshot.SecretKey)
	str("SERVER_ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}
