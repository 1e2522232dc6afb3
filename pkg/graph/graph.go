// Package graph holds the immutable, index-addressed graph that the layout
// engine and the analysis packages operate on.
package graph

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Edge is an unordered pair of vertex indices.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Graph is an undirected graph over vertices 0..n-1.
//
// The edge list is kept exactly as given, duplicates and self-loops included,
// since it is what the layout samples from. Adjacency queries use a collapsed
// view without duplicates or self-loops.
type Graph struct {
	n     int
	edges []Edge

	// CSR adjacency
	offsets []int
	adj     []int

	pairs *roaring64.Bitmap
}

// New validates the edge list and builds adjacency.
func New(n int, edges []Edge) (*Graph, error) {
	if n < 1 {
		return nil, NewError("graph.New").Param("n_vertices", n).Cause(ErrInvalidParameter).Err()
	}
	for i, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			return nil, NewError("graph.New").Edge(i).
				Detail("(%d,%d) outside [0,%d)", e.U, e.V, n).
				Cause(ErrInvalidGraph).Err()
		}
	}

	g := &Graph{
		n:     n,
		edges: append([]Edge(nil), edges...),
		pairs: roaring64.New(),
	}

	degree := make([]int, n)
	for _, e := range g.edges {
		if e.U == e.V {
			continue
		}
		key := g.pairKey(e.U, e.V)
		if g.pairs.Contains(key) {
			continue
		}
		g.pairs.Add(key)
		degree[e.U]++
		degree[e.V]++
	}

	g.offsets = make([]int, n+1)
	for v := 0; v < n; v++ {
		g.offsets[v+1] = g.offsets[v] + degree[v]
	}
	g.adj = make([]int, g.offsets[n])
	fill := append([]int(nil), g.offsets[:n]...)

	it := g.pairs.Iterator()
	for it.HasNext() {
		u, v := g.unpair(it.Next())
		g.adj[fill[u]] = v
		fill[u]++
		g.adj[fill[v]] = u
		fill[v]++
	}
	return g, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(n int, edges []Edge) *Graph {
	g, err := New(n, edges)
	if err != nil {
		panic(err)
	}
	return g
}

// FromPairs builds a graph from [2]int pairs.
func FromPairs(n int, pairs [][2]int) (*Graph, error) {
	edges := make([]Edge, len(pairs))
	for i, p := range pairs {
		edges[i] = Edge{U: p[0], V: p[1]}
	}
	return New(n, edges)
}

func (g *Graph) pairKey(u, v int) uint64 {
	if u > v {
		u, v = v, u
	}
	return uint64(u)*uint64(g.n) + uint64(v)
}

func (g *Graph) unpair(key uint64) (int, int) {
	return int(key / uint64(g.n)), int(key % uint64(g.n))
}

// N returns the vertex count.
func (g *Graph) N() int { return g.n }

// M returns the length of the edge list as given, duplicates included.
func (g *Graph) M() int { return len(g.edges) }

// UniqueEdges returns the number of distinct non-loop edges.
func (g *Graph) UniqueEdges() int { return int(g.pairs.GetCardinality()) }

// Edge returns the i-th edge of the input list.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// Edges returns a copy of the input edge list.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Neighbors returns the adjacency of v in ascending order. The slice is shared
// and must not be modified.
func (g *Graph) Neighbors(v int) []int {
	return g.adj[g.offsets[v]:g.offsets[v+1]]
}

// Degree returns the number of distinct neighbours of v.
func (g *Graph) Degree(v int) int {
	return g.offsets[v+1] - g.offsets[v]
}

// MaxDegree returns the largest vertex degree.
func (g *Graph) MaxDegree() int {
	best := 0
	for v := 0; v < g.n; v++ {
		if d := g.Degree(v); d > best {
			best = d
		}
	}
	return best
}

// Adjacent reports whether u and v share an edge. Self-loops do not count.
func (g *Graph) Adjacent(u, v int) bool {
	if u == v {
		return false
	}
	return g.pairs.Contains(g.pairKey(u, v))
}
