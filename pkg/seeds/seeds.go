// Package seeds picks influence-maximization seed sets from an embedding.
// Vertices close to the centroid of a force-directed layout tend to be the
// well connected ones, so the k smallest radii make a cheap seed set.
package seeds

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/layout"
)

// Centroid returns the mean position, or nil when there are no positions.
func Centroid(positions [][]float64) []float64 {
	if len(positions) == 0 {
		return nil
	}
	c := make([]float64, len(positions[0]))
	for _, row := range positions {
		for d, x := range row {
			c[d] += x
		}
	}
	n := float64(len(positions))
	for d := range c {
		c[d] /= n
	}
	return c
}

// Radii returns every vertex's distance from the centroid.
func Radii(positions [][]float64) []float64 {
	c := Centroid(positions)
	radii := make([]float64, len(positions))
	for v, row := range positions {
		sum := 0.0
		for d, x := range row {
			diff := x - c[d]
			sum += diff * diff
		}
		radii[v] = math.Sqrt(sum)
	}
	return radii
}

// Select returns the k vertices with the smallest radius, nearest first.
// Ties go to the lower index. k is clamped to [0, n].
func Select(positions [][]float64, k int) []int {
	return selectByRadius(Radii(positions), k)
}

func selectByRadius(radii []float64, k int) []int {
	k = max(0, min(k, len(radii)))
	order := make([]int, len(radii))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(radii[a], radii[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order[:k:k]
}

// SelectFromEngine ranks the engine's current positions.
func SelectFromEngine(e *layout.Engine, k int) []int {
	return Select(e.Positions(), k)
}

// GraphemSeeds embeds g for the given number of iterations and returns the
// k most central vertices of the result.
func GraphemSeeds(g *graph.Graph, params layout.Params, k, iterations int, opts ...layout.Option) ([]int, error) {
	e, err := layout.New(g, params, opts...)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	if err := e.RunLayout(iterations); err != nil {
		return nil, fmt.Errorf("graphem seeds: %w", err)
	}
	return SelectFromEngine(e, k), nil
}
