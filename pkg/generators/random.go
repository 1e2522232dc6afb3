package generators

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/dd0wney/graphem/pkg/graph"
)

// ErdosRenyi includes each of the n(n-1)/2 pairs independently with
// probability p.
func ErdosRenyi(rng *rand.Rand, n int, p float64) (*graph.Graph, error) {
	if err := checkMin(methodErdosRenyi, "n", n, 1); err != nil {
		return nil, err
	}
	if err := checkProbability(methodErdosRenyi, p); err != nil {
		return nil, err
	}
	if err := checkRand(methodErdosRenyi, rng); err != nil {
		return nil, err
	}

	s := newEdgeSet(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < p {
				s.add(u, v)
			}
		}
	}
	return s.graph()
}

// BarabasiAlbert grows a graph by preferential attachment: each new vertex
// links to m distinct existing vertices chosen with probability proportional
// to their degree. The first new vertex links to the m initial ones.
func BarabasiAlbert(rng *rand.Rand, n, m int) (*graph.Graph, error) {
	if err := checkMin(methodBarabasiAlbert, "m", m, 1); err != nil {
		return nil, err
	}
	if m >= n {
		return nil, fmt.Errorf("%s: m=%d must be < n=%d: %w", methodBarabasiAlbert, m, n, ErrInvalidDegree)
	}
	if err := checkRand(methodBarabasiAlbert, rng); err != nil {
		return nil, err
	}

	s := newEdgeSet(n)
	// every vertex appears here once per incident edge
	var repeated []int
	targets := make([]int, m)
	for i := range targets {
		targets[i] = i
	}

	for src := m; src < n; src++ {
		for _, t := range targets {
			s.add(src, t)
			repeated = append(repeated, src, t)
		}

		chosen := make(map[int]struct{}, m)
		targets = targets[:0]
		for len(targets) < m {
			t := repeated[rng.IntN(len(repeated))]
			if _, dup := chosen[t]; dup {
				continue
			}
			chosen[t] = struct{}{}
			targets = append(targets, t)
		}
	}
	return s.graph()
}

// WattsStrogatz builds a ring lattice where every vertex links to its k
// nearest neighbours (k/2 per side), then rewires each lattice edge with
// probability p to a uniformly chosen vertex, avoiding loops and duplicates.
func WattsStrogatz(rng *rand.Rand, n, k int, p float64) (*graph.Graph, error) {
	if err := checkMin(methodWattsStrogatz, "n", n, 3); err != nil {
		return nil, err
	}
	if k < 2 || k >= n {
		return nil, fmt.Errorf("%s: k=%d must be in [2,%d): %w", methodWattsStrogatz, k, n, ErrInvalidDegree)
	}
	if err := checkProbability(methodWattsStrogatz, p); err != nil {
		return nil, err
	}
	if err := checkRand(methodWattsStrogatz, rng); err != nil {
		return nil, err
	}

	s := newEdgeSet(n)
	half := k / 2
	for j := 1; j <= half; j++ {
		for u := 0; u < n; u++ {
			s.add(u, (u+j)%n)
		}
	}

	for j := 1; j <= half; j++ {
		for u := 0; u < n; u++ {
			v := (u + j) % n
			if rng.Float64() >= p || !s.has(u, v) {
				continue
			}
			// a vertex already linked to everyone cannot be rewired
			if s.degree[u] >= n-1 {
				continue
			}
			w := rng.IntN(n)
			for w == u || s.has(u, w) {
				w = rng.IntN(n)
			}
			s.remove(u, v)
			s.add(u, w)
		}
	}
	return s.graph()
}

// RandomRegular returns a uniformly-ish random d-regular simple graph. Stubs
// are paired at random, keeping the pairs that are still legal, and the
// whole attempt restarts when the leftovers cannot be matched.
func RandomRegular(rng *rand.Rand, n, d int) (*graph.Graph, error) {
	if err := checkMin(methodRandomRegular, "n", n, 1); err != nil {
		return nil, err
	}
	if d < 0 || d >= n {
		return nil, fmt.Errorf("%s: d=%d must be in [0,%d): %w", methodRandomRegular, d, n, ErrInvalidDegree)
	}
	if (n*d)%2 != 0 {
		return nil, fmt.Errorf("%s: n*d must be even (n=%d, d=%d): %w", methodRandomRegular, n, d, ErrInvalidDegree)
	}
	if err := checkRand(methodRandomRegular, rng); err != nil {
		return nil, err
	}
	if d == 0 {
		return graph.New(n, nil)
	}

	for attempt := 0; attempt < maxRegularAttempts; attempt++ {
		if s, ok := tryRegular(rng, n, d); ok {
			return s.graph()
		}
	}
	return nil, fmt.Errorf("%s: no simple matching after %d attempts: %w", methodRandomRegular, maxRegularAttempts, ErrConstructFailed)
}

func tryRegular(rng *rand.Rand, n, d int) (*edgeSet, bool) {
	s := newEdgeSet(n)
	stubs := make([]int, 0, n*d)
	for v := 0; v < n; v++ {
		for i := 0; i < d; i++ {
			stubs = append(stubs, v)
		}
	}

	for len(stubs) > 0 {
		rng.Shuffle(len(stubs), func(i, j int) { stubs[i], stubs[j] = stubs[j], stubs[i] })

		var left []int
		progress := false
		for i := 0; i+1 < len(stubs); i += 2 {
			u, v := stubs[i], stubs[i+1]
			if s.add(u, v) {
				progress = true
				continue
			}
			left = append(left, u, v)
		}
		if !progress {
			return nil, false
		}
		stubs = left
	}
	return s, true
}

// StochasticBlockModel splits vertices into consecutive blocks of the given
// sizes and links a vertex of block a to one of block b with probs[a][b].
func StochasticBlockModel(rng *rand.Rand, sizes []int, probs [][]float64) (*graph.Graph, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%s: no blocks: %w", methodSBM, ErrTooFewVertices)
	}
	if len(probs) != len(sizes) {
		return nil, fmt.Errorf("%s: %d blocks but %d probability rows: %w", methodSBM, len(sizes), len(probs), ErrInvalidProbability)
	}
	n := 0
	block := []int{}
	for b, size := range sizes {
		if err := checkMin(methodSBM, fmt.Sprintf("sizes[%d]", b), size, 1); err != nil {
			return nil, err
		}
		if len(probs[b]) != len(sizes) {
			return nil, fmt.Errorf("%s: probability row %d has %d entries: %w", methodSBM, b, len(probs[b]), ErrInvalidProbability)
		}
		for _, p := range probs[b] {
			if err := checkProbability(methodSBM, p); err != nil {
				return nil, err
			}
		}
		for i := 0; i < size; i++ {
			block = append(block, b)
		}
		n += size
	}
	if err := checkRand(methodSBM, rng); err != nil {
		return nil, err
	}

	s := newEdgeSet(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < probs[block[u]][block[v]] {
				s.add(u, v)
			}
		}
	}
	return s.graph()
}

// ScaleFree grows a graph with the Bollobás et al. directed model
// (alpha=0.41, beta=0.54, gamma=0.05, delta_in=0.2, delta_out=0) and keeps
// the undirected simple skeleton of the result.
func ScaleFree(rng *rand.Rand, n int) (*graph.Graph, error) {
	const (
		alpha    = 0.41
		beta     = 0.54
		deltaIn  = 0.2
		deltaOut = 0.0
	)
	if err := checkMin(methodScaleFree, "n", n, 3); err != nil {
		return nil, err
	}
	if err := checkRand(methodScaleFree, rng); err != nil {
		return nil, err
	}

	s := newEdgeSet(n)
	inDeg := make([]float64, 0, n)
	outDeg := make([]float64, 0, n)
	// start from a directed 3-cycle
	for i := 0; i < 3; i++ {
		inDeg = append(inDeg, 1)
		outDeg = append(outDeg, 1)
		s.add(i, (i+1)%3)
	}
	edges := 3.0

	pick := func(deg []float64, delta float64) int {
		total := edges + delta*float64(len(deg))
		r := rng.Float64() * total
		for v, d := range deg {
			r -= d + delta
			if r < 0 {
				return v
			}
		}
		return len(deg) - 1
	}

	for len(inDeg) < n {
		r := rng.Float64()
		var u, v int
		switch {
		case r < alpha:
			// new vertex -> existing by in-degree
			v = pick(inDeg, deltaIn)
			u = len(inDeg)
			inDeg, outDeg = append(inDeg, 0), append(outDeg, 0)
		case r < alpha+beta:
			// existing -> existing
			u = pick(outDeg, deltaOut)
			v = pick(inDeg, deltaIn)
		default:
			// existing -> new vertex by out-degree
			u = pick(outDeg, deltaOut)
			v = len(inDeg)
			inDeg, outDeg = append(inDeg, 0), append(outDeg, 0)
		}
		outDeg[u]++
		inDeg[v]++
		edges++
		s.add(u, v)
	}
	return s.graph()
}

// Geometric scatters n points uniformly in the unit hypercube and links
// every pair closer than radius.
func Geometric(rng *rand.Rand, n int, radius float64, dim int) (*graph.Graph, error) {
	if err := checkMin(methodGeometric, "n", n, 1); err != nil {
		return nil, err
	}
	if err := checkMin(methodGeometric, "dim", dim, 1); err != nil {
		return nil, err
	}
	if !(radius >= 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%s: radius=%v must be finite and >= 0: %w", methodGeometric, radius, ErrTooFewVertices)
	}
	if err := checkRand(methodGeometric, rng); err != nil {
		return nil, err
	}

	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = make([]float64, dim)
		for d := range pts[i] {
			pts[i][d] = rng.Float64()
		}
	}

	r2 := radius * radius
	s := newEdgeSet(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			sum := 0.0
			for d := 0; d < dim; d++ {
				diff := pts[u][d] - pts[v][d]
				sum += diff * diff
			}
			if sum <= r2 {
				s.add(u, v)
			}
		}
	}
	return s.graph()
}
