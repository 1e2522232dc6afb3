package generators

import (
	"math/rand/v2"

	"github.com/dd0wney/graphem/pkg/graph"
)

// Caveman returns l cliques of size k joined into a ring: in every clique
// one internal edge is redirected to the next clique.
func Caveman(l, k int) (*graph.Graph, error) {
	if err := checkMin(methodCaveman, "l", l, 1); err != nil {
		return nil, err
	}
	if err := checkMin(methodCaveman, "k", k, 2); err != nil {
		return nil, err
	}

	s := cliques(l, k)
	if l > 1 {
		for c := 0; c < l; c++ {
			start := c * k
			next := ((c + 1) % l) * k
			s.remove(start, start+1)
			s.add(start, next+1)
		}
	}
	return s.graph()
}

// RelaxedCaveman starts from l disjoint cliques of size k and rewires each
// edge with probability p to a random vertex anywhere in the graph.
func RelaxedCaveman(rng *rand.Rand, l, k int, p float64) (*graph.Graph, error) {
	if err := checkMin(methodRelaxedCaveman, "l", l, 1); err != nil {
		return nil, err
	}
	if err := checkMin(methodRelaxedCaveman, "k", k, 2); err != nil {
		return nil, err
	}
	if err := checkProbability(methodRelaxedCaveman, p); err != nil {
		return nil, err
	}
	if err := checkRand(methodRelaxedCaveman, rng); err != nil {
		return nil, err
	}

	s := cliques(l, k)
	n := l * k
	lattice := s.edges()
	for _, e := range lattice {
		if rng.Float64() >= p {
			continue
		}
		w := rng.IntN(n)
		if s.has(e.U, w) || w == e.U {
			continue
		}
		s.remove(e.U, e.V)
		s.add(e.U, w)
	}
	return s.graph()
}

func cliques(l, k int) *edgeSet {
	s := newEdgeSet(l * k)
	for c := 0; c < l; c++ {
		base := c * k
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				s.add(base+i, base+j)
			}
		}
	}
	return s
}

// Star returns hub 0 linked to leaves 1..leaves.
func Star(leaves int) (*graph.Graph, error) {
	if err := checkMin(methodStar, "leaves", leaves, 1); err != nil {
		return nil, err
	}
	edges := make([]graph.Edge, leaves)
	for i := range edges {
		edges[i] = graph.Edge{U: 0, V: i + 1}
	}
	return graph.New(leaves+1, edges)
}

// Path returns 0-1-...-(n-1).
func Path(n int) (*graph.Graph, error) {
	if err := checkMin(methodPath, "n", n, 1); err != nil {
		return nil, err
	}
	edges := make([]graph.Edge, n-1)
	for i := range edges {
		edges[i] = graph.Edge{U: i, V: i + 1}
	}
	return graph.New(n, edges)
}

// Cycle returns the path 0..n-1 closed by the edge (n-1, 0).
func Cycle(n int) (*graph.Graph, error) {
	if err := checkMin(methodCycle, "n", n, 3); err != nil {
		return nil, err
	}
	edges := make([]graph.Edge, n)
	for i := range edges {
		edges[i] = graph.Edge{U: i, V: (i + 1) % n}
	}
	return graph.New(n, edges)
}
