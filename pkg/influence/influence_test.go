package influence

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/graphem/pkg/graph"
)

func star(leaves int) *graph.Graph {
	edges := make([]graph.Edge, leaves)
	for i := range edges {
		edges[i] = graph.Edge{U: 0, V: i + 1}
	}
	return graph.MustNew(leaves+1, edges)
}

func path(n int) *graph.Graph {
	edges := make([]graph.Edge, n-1)
	for i := range edges {
		edges[i] = graph.Edge{U: i, V: i + 1}
	}
	return graph.MustNew(n, edges)
}

func TestSimulate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	g := path(10)

	assert.Equal(t, 10, Simulate(g, []int{0}, 1, 0, rng), "p=1 activates the whole component")
	assert.Equal(t, 1, Simulate(g, []int{4}, 0, 0, rng), "p=0 keeps only the seed")
	assert.Equal(t, 4, Simulate(g, []int{0}, 1, 3, rng), "steps bound the cascade")
	assert.Equal(t, 2, Simulate(g, []int{3, 3, 7, -1, 99}, 0, 0, rng), "duplicate and out-of-range seeds are ignored")
}

func TestSpread(t *testing.T) {
	ctx := context.Background()
	cfg := Config{P: 0.5, Trials: 200, Seed: 7, Workers: 4}

	hub, err := Spread(ctx, star(20), []int{0}, cfg)
	require.NoError(t, err)
	leaf, err := Spread(ctx, star(20), []int{1}, cfg)
	require.NoError(t, err)

	// hub reaches about 1 + 20/2 vertices
	assert.InDelta(t, 11, hub.Mean, 1)
	assert.Greater(t, hub.Mean, leaf.Mean)
	assert.Equal(t, 200, hub.Trials)

	again, err := Spread(ctx, star(20), []int{0}, Config{P: 0.5, Trials: 200, Seed: 7, Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, hub, again, "worker count must not change the estimate")
}

func TestSpread_InvalidConfig(t *testing.T) {
	_, err := Spread(context.Background(), star(3), []int{0}, Config{P: 2, Trials: 1})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = Spread(context.Background(), star(3), []int{0}, Config{P: 0.1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "influence.trials")
	_, err = Spread(context.Background(), star(3), []int{0}, Config{P: -0.5, Steps: -1, Trials: 1, Workers: -2})
	assert.ErrorContains(t, err, "influence.p")
	assert.ErrorContains(t, err, "influence.steps")
	assert.ErrorContains(t, err, "influence.workers")
}

func TestSpread_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Spread(ctx, star(3), []int{0}, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	got := Random(star(9), 4, rng)
	assert.Len(t, got, 4)
	seen := map[int]bool{}
	for _, v := range got {
		assert.False(t, seen[v])
		seen[v] = true
	}
	assert.Len(t, Random(star(2), 10, rng), 3)
	assert.Empty(t, Random(star(2), -1, rng))
}

func TestGreedy(t *testing.T) {
	// two stars joined by a long path: greedy should take both hubs
	edges := []graph.Edge{}
	for i := 1; i <= 8; i++ {
		edges = append(edges, graph.Edge{U: 0, V: i})
		edges = append(edges, graph.Edge{U: 9, V: 9 + i})
	}
	g := graph.MustNew(18, edges)

	res, err := Greedy(context.Background(), g, 2, Config{P: 0.6, Trials: 100, Seed: 3})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 9}, res.Seeds)
	assert.GreaterOrEqual(t, res.Evaluations, g.N())

	empty, err := Greedy(context.Background(), g, 0, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, empty.Seeds)
}
