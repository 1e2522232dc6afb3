package spatial

import (
	"slices"
)

// KDTree partitions points by median splits on the widest axis. Queries
// descend to the nearest leaf first and then backtrack until either the
// pruning bound or the leaf budget stops them, so results are approximate
// when the budget is hit and exact otherwise.
type KDTree struct {
	opts options

	flat  []float64
	dim   int
	n     int
	perm  []int
	nodes []kdNode
}

type kdNode struct {
	axis        int
	split       float64
	left, right int // child node ids, -1 for a leaf
	lo, hi      int // leaf range in perm
}

// NewKDTree creates an empty kd-tree.
func NewKDTree(opts ...Option) *KDTree {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &KDTree{opts: o}
}

func (t *KDTree) Len() int { return t.n }

func (t *KDTree) point(i int) []float64 {
	return t.flat[i*t.dim : (i+1)*t.dim]
}

// Build constructs the tree in O(n log² n).
func (t *KDTree) Build(points [][]float64) error {
	flat, dim, err := flatten(points, t.dim)
	if err != nil {
		return err
	}
	t.flat, t.dim, t.n = flat, dim, len(points)

	t.perm = make([]int, t.n)
	for i := range t.perm {
		t.perm[i] = i
	}
	t.nodes = t.nodes[:0]
	if t.n > 0 {
		t.build(0, t.n)
	}
	return nil
}

func (t *KDTree) build(lo, hi int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, kdNode{left: -1, right: -1, lo: lo, hi: hi})
	if hi-lo <= t.opts.leafSize {
		return id
	}

	axis, spread := 0, -1.0
	for a := 0; a < t.dim; a++ {
		minV, maxV := t.point(t.perm[lo])[a], t.point(t.perm[lo])[a]
		for _, p := range t.perm[lo+1 : hi] {
			v := t.point(p)[a]
			minV = min(minV, v)
			maxV = max(maxV, v)
		}
		if maxV-minV > spread {
			axis, spread = a, maxV-minV
		}
	}
	if spread == 0 {
		// All points coincide; nothing to split on.
		return id
	}

	slices.SortFunc(t.perm[lo:hi], func(a, b int) int {
		va, vb := t.point(a)[axis], t.point(b)[axis]
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return a - b
		}
	})
	mid := (lo + hi) / 2
	// read before recursing; the children re-sort perm[lo:hi] on their own axes
	split := t.point(t.perm[mid])[axis]

	left := t.build(lo, mid)
	right := t.build(mid, hi)
	t.nodes[id].axis = axis
	t.nodes[id].split = split
	t.nodes[id].left = left
	t.nodes[id].right = right
	return id
}

func (t *KDTree) QueryKNN(queries []int, k int, exclude ExcludeFunc) [][]Neighbor {
	k = clampK(k, t.n)
	out := make([][]Neighbor, len(queries))
	for qi, q := range queries {
		if k == 0 || q < 0 || q >= t.n {
			out[qi] = []Neighbor{}
			continue
		}
		s := kdSearch{
			tree:    t,
			q:       q,
			qp:      t.point(q),
			top:     newTopK(k),
			exclude: exclude,
			budget:  t.opts.maxLeaves,
		}
		if s.budget <= 0 {
			s.budget = len(t.nodes)
		}
		s.visit(0)
		out[qi] = s.top.result()
	}
	return out
}

type kdSearch struct {
	tree    *KDTree
	q       int
	qp      []float64
	top     *topK
	exclude ExcludeFunc
	budget  int
}

func (s *kdSearch) visit(id int) {
	if s.budget <= 0 {
		return
	}
	node := &s.tree.nodes[id]
	if node.left < 0 {
		s.budget--
		for _, p := range s.tree.perm[node.lo:node.hi] {
			if p == s.q || (s.exclude != nil && s.exclude(s.q, p)) {
				continue
			}
			s.top.offer(candidate{index: p, d2: sqDist(s.qp, s.tree.point(p))})
		}
		return
	}

	diff := s.qp[node.axis] - node.split
	near, far := node.left, node.right
	if diff >= 0 {
		near, far = node.right, node.left
	}
	s.visit(near)
	if diff*diff <= s.top.worst() {
		s.visit(far)
	}
}
