// Package centrality computes exact vertex centralities over a graph.Graph.
// Every measure returns a slice indexed by vertex; graphs are treated as
// undirected and unweighted, duplicates and self-loops are ignored.
package centrality

import (
	"container/heap"
	"errors"
	"sort"

	"github.com/dd0wney/graphem/pkg/graph"
)

// ErrNotConverged is returned by iterative measures that ran out of
// iterations before reaching their tolerance.
var ErrNotConverged = errors.New("centrality: power iteration did not converge")

// neighbours returns the distinct non-loop neighbours of v.
func neighbours(g *graph.Graph, v int) []int {
	nb := g.Neighbors(v)
	out := make([]int, 0, len(nb))
	for i, w := range nb {
		if w == v || (i > 0 && nb[i-1] == w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func adjacency(g *graph.Graph) [][]int {
	adj := make([][]int, g.N())
	for v := range adj {
		adj[v] = neighbours(g, v)
	}
	return adj
}

// Degree returns each vertex's distinct-neighbour count divided by n-1.
func Degree(g *graph.Graph) []float64 {
	n := g.N()
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for v := range out {
		out[v] = float64(len(neighbours(g, v))) / float64(n-1)
	}
	return out
}

// bfs holds the per-source state of a shortest-path traversal.
type bfs struct {
	dist  []int
	sigma []float64
	preds [][]int
	order []int
	queue []int
}

func newBFS(n int) *bfs {
	return &bfs{
		dist:  make([]int, n),
		sigma: make([]float64, n),
		preds: make([][]int, n),
		order: make([]int, 0, n),
		queue: make([]int, 0, n),
	}
}

// run fills dist, sigma, preds and the visit order from source s.
func (b *bfs) run(adj [][]int, s int) {
	for v := range b.dist {
		b.dist[v] = -1
		b.sigma[v] = 0
		b.preds[v] = b.preds[v][:0]
	}
	b.order = b.order[:0]
	b.queue = append(b.queue[:0], s)
	b.dist[s] = 0
	b.sigma[s] = 1

	for head := 0; head < len(b.queue); head++ {
		v := b.queue[head]
		b.order = append(b.order, v)
		for _, w := range adj[v] {
			if b.dist[w] < 0 {
				b.dist[w] = b.dist[v] + 1
				b.queue = append(b.queue, w)
			}
			if b.dist[w] == b.dist[v]+1 {
				b.sigma[w] += b.sigma[v]
				b.preds[w] = append(b.preds[w], v)
			}
		}
	}
}

// normalizePairs scales raw all-sources sums by 1/((n-1)(n-2)), which for
// undirected graphs equals the usual 2/((n-1)(n-2)) over unordered pairs.
func normalizePairs(scores []float64) {
	n := len(scores)
	if n <= 2 {
		return
	}
	factor := 1.0 / float64((n-1)*(n-2))
	for v := range scores {
		scores[v] *= factor
	}
}

// Betweenness computes normalized betweenness with Brandes' algorithm.
func Betweenness(g *graph.Graph) []float64 {
	n := g.N()
	adj := adjacency(g)
	scores := make([]float64, n)
	delta := make([]float64, n)
	b := newBFS(n)

	for s := 0; s < n; s++ {
		b.run(adj, s)
		for i := range delta {
			delta[i] = 0
		}
		// Back-propagation in reverse BFS order
		for i := len(b.order) - 1; i >= 0; i-- {
			w := b.order[i]
			for _, v := range b.preds[w] {
				delta[v] += (b.sigma[v] / b.sigma[w]) * (1 + delta[w])
			}
			if w != s {
				scores[w] += delta[w]
			}
		}
	}
	normalizePairs(scores)
	return scores
}

// Load computes Newman's load centrality: every vertex sends one unit of
// flow to each source, split evenly among its shortest-path predecessors.
func Load(g *graph.Graph) []float64 {
	n := g.N()
	adj := adjacency(g)
	scores := make([]float64, n)
	load := make([]float64, n)
	b := newBFS(n)

	for s := 0; s < n; s++ {
		b.run(adj, s)
		for _, v := range b.order {
			load[v] = 1
		}
		for i := len(b.order) - 1; i > 0; i-- {
			w := b.order[i]
			share := load[w] / float64(len(b.preds[w]))
			for _, v := range b.preds[w] {
				load[v] += share
			}
			// the flow a vertex passes on beyond its own unit
			scores[w] += load[w] - 1
		}
	}
	normalizePairs(scores)
	return scores
}

// Closeness computes closeness with the Wasserman-Faust correction, so
// vertices in small components are not ranked as central.
func Closeness(g *graph.Graph) []float64 {
	n := g.N()
	adj := adjacency(g)
	out := make([]float64, n)
	b := newBFS(n)

	for s := 0; s < n; s++ {
		b.run(adj, s)
		total, reachable := 0, 0
		for _, v := range b.order {
			if b.dist[v] > 0 {
				total += b.dist[v]
				reachable++
			}
		}
		if total > 0 && n > 1 {
			out[s] = (float64(reachable) / float64(total)) * (float64(reachable) / float64(n-1))
		}
	}
	return out
}

// RankedVertex is a vertex with its score.
type RankedVertex struct {
	Vertex int     `json:"vertex"`
	Score  float64 `json:"score"`
}

// rankedHeap is a min-heap, so the root is the weakest of the current top k.
type rankedHeap []RankedVertex

func (h rankedHeap) Len() int { return len(h) }
func (h rankedHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Vertex > h[j].Vertex
}
func (h rankedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedHeap) Push(x any) {
	*h = append(*h, x.(RankedVertex))
}

func (h *rankedHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Top returns the k highest scores, descending, ties by lower vertex.
func Top(scores []float64, k int) []RankedVertex {
	if k <= 0 {
		return nil
	}

	h := make(rankedHeap, 0, k)
	heap.Init(&h)
	for v, score := range scores {
		rv := RankedVertex{Vertex: v, Score: score}
		if h.Len() < k {
			heap.Push(&h, rv)
		} else if less(h[0], rv) {
			heap.Pop(&h)
			heap.Push(&h, rv)
		}
	}

	result := make([]RankedVertex, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedVertex)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Vertex < result[j].Vertex
	})
	return result
}

// less reports whether a ranks below b.
func less(a, b RankedVertex) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Vertex > b.Vertex
}
