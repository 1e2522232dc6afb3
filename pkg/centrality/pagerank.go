package centrality

import (
	"math"

	"github.com/dd0wney/graphem/pkg/graph"
)

// PageRankOptions configures PageRank
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // per-vertex L1 convergence threshold
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// PageRankResult contains PageRank scores for all vertices
type PageRankResult struct {
	Scores     []float64
	Iterations int
	Converged  bool
}

// PageRank treats every undirected edge as a pair of arcs. Mass on
// isolated vertices is spread uniformly over the graph.
func PageRank(g *graph.Graph, opts PageRankOptions) *PageRankResult {
	n := g.N()
	if n == 0 {
		return &PageRankResult{Converged: true}
	}
	adj := adjacency(g)

	scores := make([]float64, n)
	next := make([]float64, n)
	for v := range scores {
		scores[v] = 1 / float64(n)
	}

	res := &PageRankResult{}
	for res.Iterations < opts.MaxIterations {
		res.Iterations++

		dangling := 0.0
		for v, nb := range adj {
			if len(nb) == 0 {
				dangling += scores[v]
			}
		}
		base := (1-opts.DampingFactor)/float64(n) + opts.DampingFactor*dangling/float64(n)
		for v := range next {
			next[v] = base
		}
		for v, nb := range adj {
			if len(nb) == 0 {
				continue
			}
			share := opts.DampingFactor * scores[v] / float64(len(nb))
			for _, w := range nb {
				next[w] += share
			}
		}

		diff := 0.0
		for v := range scores {
			diff += math.Abs(next[v] - scores[v])
		}
		scores, next = next, scores
		if diff < float64(n)*opts.Tolerance {
			res.Converged = true
			break
		}
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if sum > 0 {
		for v := range scores {
			scores[v] /= sum
		}
	}
	res.Scores = scores
	return res
}

// Eigenvector runs power iteration on A+I and returns the L2-normalized
// principal eigenvector. The shift keeps bipartite graphs from oscillating.
func Eigenvector(g *graph.Graph, maxIter int, tol float64) ([]float64, error) {
	n := g.N()
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	adj := adjacency(g)

	x := make([]float64, n)
	for v := range x {
		x[v] = 1 / float64(n)
	}
	for iter := 0; iter < maxIter; iter++ {
		for v := range out {
			out[v] = x[v]
		}
		for v, nb := range adj {
			for _, w := range nb {
				out[w] += x[v]
			}
		}

		norm := 0.0
		for _, s := range out {
			norm += s * s
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return out, nil
		}
		diff := 0.0
		for v := range out {
			out[v] /= norm
			diff += math.Abs(out[v] - x[v])
		}
		if diff < float64(n)*tol {
			return out, nil
		}
		x, out = out, x
	}
	return x, ErrNotConverged
}
