package spatial

import (
	"math"
	"math/rand/v2"
)

// maxHNSWLevel caps the level generator so a pathological draw cannot build
// a tall, empty hierarchy.
const maxHNSWLevel = 16

// HNSW is a Hierarchical Navigable Small World graph over vertex positions.
// Points are inserted in index order with a level generator seeded per
// Build, so two builds over the same points yield the same graph.
type HNSW struct {
	opts  options
	mMax0 int
	ml    float64

	flat []float64
	dim  int

	nodes      []hnswNode
	entryPoint int
	maxLayer   int
}

type hnswNode struct {
	level   int
	friends [][]int // [layer][neighbour ids]
}

// NewHNSW creates an empty HNSW index.
func NewHNSW(opts ...Option) *HNSW {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &HNSW{
		opts:       o,
		mMax0:      o.m * 2,
		ml:         1.0 / math.Log(float64(o.m)),
		entryPoint: -1,
		maxLayer:   -1,
	}
}

func (h *HNSW) Len() int { return len(h.nodes) }

func (h *HNSW) point(i int) []float64 {
	return h.flat[i*h.dim : (i+1)*h.dim]
}

// Build discards the previous graph and inserts every point.
func (h *HNSW) Build(points [][]float64) error {
	flat, dim, err := flatten(points, h.dim)
	if err != nil {
		return err
	}
	h.flat, h.dim = flat, dim
	h.nodes = make([]hnswNode, 0, len(points))
	h.entryPoint, h.maxLayer = -1, -1

	rng := rand.New(rand.NewPCG(h.opts.seed, uint64(len(points))))
	for i := range points {
		h.insert(i, h.selectLevel(rng))
	}
	return nil
}

// selectLevel draws from the exponentially decaying level distribution
func (h *HNSW) selectLevel(rng *rand.Rand) int {
	level := int(-math.Log(1-rng.Float64()) * h.ml)
	return min(level, maxHNSWLevel)
}

func (h *HNSW) insert(id, level int) {
	node := hnswNode{level: level, friends: make([][]int, level+1)}
	h.nodes = append(h.nodes, node)

	if h.entryPoint < 0 {
		h.entryPoint = id
		h.maxLayer = level
		return
	}

	qp := h.point(id)
	ep := h.entryPoint
	for layer := h.maxLayer; layer > level; layer-- {
		ep = h.greedy(qp, ep, layer)
	}

	for layer := min(level, h.maxLayer); layer >= 0; layer-- {
		maxConn := h.opts.m
		if layer == 0 {
			maxConn = h.mMax0
		}

		found := h.searchLayer(qp, ep, h.opts.efConstruction, layer)
		neighbours := nearest(found, h.opts.m)
		for _, nb := range neighbours {
			h.nodes[id].friends[layer] = append(h.nodes[id].friends[layer], nb.index)
			h.nodes[nb.index].friends[layer] = append(h.nodes[nb.index].friends[layer], id)
			if len(h.nodes[nb.index].friends[layer]) > maxConn {
				h.prune(nb.index, layer, maxConn)
			}
		}
		if len(neighbours) > 0 {
			ep = neighbours[0].index
		}
	}

	if level > h.maxLayer {
		h.maxLayer = level
		h.entryPoint = id
	}
}

// prune keeps the maxConn nearest links of node at layer
func (h *HNSW) prune(node, layer, maxConn int) {
	np := h.point(node)
	links := h.nodes[node].friends[layer]
	cands := make([]candidate, len(links))
	for i, f := range links {
		cands[i] = candidate{index: f, d2: sqDist(np, h.point(f))}
	}
	kept := nearest(cands, maxConn)
	out := links[:0]
	for _, c := range kept {
		out = append(out, c.index)
	}
	h.nodes[node].friends[layer] = out
}

func (h *HNSW) QueryKNN(queries []int, k int, exclude ExcludeFunc) [][]Neighbor {
	n := len(h.nodes)
	k = clampK(k, n)
	out := make([][]Neighbor, len(queries))
	for qi, q := range queries {
		if k == 0 || q < 0 || q >= n {
			out[qi] = []Neighbor{}
			continue
		}
		qp := h.point(q)
		ep := h.entryPoint
		for layer := h.maxLayer; layer > 0; layer-- {
			ep = h.greedy(qp, ep, layer)
		}

		// Self and excluded vertices still occupy slots in the beam, so
		// widen it by the number that can be filtered out.
		ef := max(h.opts.efSearch, k+1)
		if exclude != nil {
			ef += k
		}
		top := newTopK(k)
		for _, c := range h.searchLayer(qp, ep, ef, 0) {
			if c.index == q || (exclude != nil && exclude(q, c.index)) {
				continue
			}
			top.offer(c)
		}
		out[qi] = top.result()
	}
	return out
}
