package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "graphem.yaml", `
layout:
  l_min: 2
  k_attr: 0.3
  k_inter: 0.2
  knn_k: 8
  sample_size: 64
  batch_size: 128
  dimension: 2
index:
  kind: hnsw
run:
  iterations: 25
  seed: 7
server:
  addr: ":9090"
  shutdown_timeout: 5s
  max_iterations: 100
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Layout.LMin)
	assert.Equal(t, 2, cfg.Layout.Dimension)
	assert.Equal(t, "hnsw", cfg.Index.Kind)
	assert.Equal(t, 25, cfg.Run.Iterations)
	assert.Equal(t, uint64(7), cfg.Run.Seed)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Log.Format, "unset sections keep defaults")
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "graphem.toml", `
[layout]
l_min = 1.5
k_attr = 0.5
k_inter = 0.1
knn_k = 4
sample_size = 10
batch_size = 10
dimension = 3

[snapshot]
store = "file"
codec = "lz4"
path = "/tmp/snaps"

[log]
level = "debug"
format = "console"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Layout.LMin)
	assert.Equal(t, StoreFile, cfg.Snapshot.Store)
	assert.Equal(t, "lz4", cfg.Snapshot.Codec)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown yaml key", "c.yaml", "run:\n  iterationz: 3\n", "iterationz"},
		{"unknown toml key", "c.toml", "[run]\nspeed = 3\n", "unknown keys"},
		{"bad extension", "c.json", "{}", "unsupported"},
		{"negative iterations", "c.yaml", "run:\n  iterations: -1\n", "Iterations"},
		{"bad index", "c.yaml", "index:\n  kind: octree\n", "Kind"},
		{"s3 without bucket", "c.yaml", "snapshot:\n  store: s3\n", "Snapshot.Bucket"},
		{"snapshot every without store", "c.yaml", "run:\n  snapshot_every: 5\n", "requires a snapshot store"},
		{"zero dimension", "c.yaml", "layout:\n  dimension: 0\n  l_min: 1\n", "invalid parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"index kind", func(c *Config) { c.Index.Kind = "octree" }, "Config.Index.Kind"},
		{"negative workers", func(c *Config) { c.Run.Workers = -2 }, "Config.Run.Workers"},
		{"negative snapshot interval", func(c *Config) { c.Run.SnapshotEvery = -1 }, "Config.Run.SnapshotEvery"},
		{"store", func(c *Config) { c.Snapshot.Store = "ftp" }, "Config.Snapshot.Store"},
		{"codec", func(c *Config) { c.Snapshot.Codec = "brotli" }, "Config.Snapshot.Codec"},
		{"max iterations", func(c *Config) { c.Server.MaxIterations = 0 }, "Config.Server.MaxIterations"},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeout = -time.Second }, "Config.Server.ShutdownTimeout"},
		{"long shutdown", func(c *Config) { c.Server.ShutdownTimeout = time.Hour }, "Config.Server.ShutdownTimeout"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "Config.Log.Level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "Config.Log.Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_AcceptsEveryKind(t *testing.T) {
	for _, kind := range []string{"kdtree", "kdtree-exact", "hnsw", "brute"} {
		cfg := Default()
		cfg.Index.Kind = kind
		assert.NoError(t, cfg.Validate(), kind)
	}
	for _, codec := range []string{"none", "snappy", "zstd", "lz4"} {
		cfg := Default()
		cfg.Snapshot.Codec = codec
		assert.NoError(t, cfg.Validate(), codec)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GRAPHEM_ITERATIONS":      "12",
		"GRAPHEM_SEED":            "99",
		"GRAPHEM_L_MIN":           "3.5",
		"GRAPHEM_INDEX":           "brute",
		"GRAPHEM_VERBOSE":         "true",
		"GRAPHEM_SNAPSHOT_BUCKET": "layouts",
		"GRAPHEM_LOG_LEVEL":       "warn",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 12, cfg.Run.Iterations)
	assert.Equal(t, uint64(99), cfg.Run.Seed)
	assert.Equal(t, 3.5, cfg.Layout.LMin)
	assert.Equal(t, "brute", cfg.Index.Kind)
	assert.True(t, cfg.Run.Verbose)
	assert.Equal(t, "layouts", cfg.Snapshot.Bucket)
	assert.Equal(t, "warn", cfg.Log.Level)

	env = map[string]string{"GRAPHEM_WORKERS": "many", "GRAPHEM_K_ATTR": "x"}
	err := cfg.ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRAPHEM_WORKERS")
	assert.Contains(t, err.Error(), "GRAPHEM_K_ATTR")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "c.yaml", "run:\n  iterations: 5\n")
	t.Setenv("GRAPHEM_ITERATIONS", "8")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Run.Iterations)
}
