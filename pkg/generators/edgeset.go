package generators

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/dd0wney/graphem/pkg/graph"
)

// edgeSet collects simple undirected edges. Pairs are keyed min*n+max, so
// iterating the bitmap yields edges sorted by (U, V).
type edgeSet struct {
	n      int
	seen   *roaring64.Bitmap
	degree []int
}

func newEdgeSet(n int) *edgeSet {
	return &edgeSet{n: n, seen: roaring64.New(), degree: make([]int, n)}
}

func (s *edgeSet) key(u, v int) uint64 {
	if u > v {
		u, v = v, u
	}
	return uint64(u)*uint64(s.n) + uint64(v)
}

// add inserts {u,v} and reports whether it was new. Self-loops are refused.
func (s *edgeSet) add(u, v int) bool {
	if u == v || !s.seen.CheckedAdd(s.key(u, v)) {
		return false
	}
	s.degree[u]++
	s.degree[v]++
	return true
}

func (s *edgeSet) has(u, v int) bool {
	return u != v && s.seen.Contains(s.key(u, v))
}

func (s *edgeSet) remove(u, v int) {
	if u != v && s.seen.CheckedRemove(s.key(u, v)) {
		s.degree[u]--
		s.degree[v]--
	}
}

func (s *edgeSet) edges() []graph.Edge {
	out := make([]graph.Edge, 0, s.seen.GetCardinality())
	it := s.seen.Iterator()
	for it.HasNext() {
		k := it.Next()
		out = append(out, graph.Edge{U: int(k / uint64(s.n)), V: int(k % uint64(s.n))})
	}
	return out
}

func (s *edgeSet) graph() (*graph.Graph, error) {
	return graph.New(s.n, s.edges())
}
