package spatial

import (
	"container/heap"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// ExactKDTree answers exact kNN queries with gonum's kd-tree. It has no
// visit budget, so it is slower than KDTree on large layouts but never
// misses a neighbour.
type ExactKDTree struct {
	tree   *kdtree.Tree
	points []kdPoint // indexed by vertex
	dim    int
}

// NewExactKDTree creates an empty exact kd-tree.
func NewExactKDTree() *ExactKDTree {
	return &ExactKDTree{}
}

func (t *ExactKDTree) Build(points [][]float64) error {
	flat, dim, err := flatten(points, t.dim)
	if err != nil {
		return err
	}
	t.dim = dim
	t.points = make([]kdPoint, len(points))
	for i := range t.points {
		t.points[i] = kdPoint{index: i, coords: kdtree.Point(flat[i*dim : (i+1)*dim])}
	}
	t.tree = nil
	if len(points) > 0 {
		// New partitions its argument in place, so it gets its own slice.
		t.tree = kdtree.New(slices.Clone(kdPoints(t.points)), false)
	}
	return nil
}

func (t *ExactKDTree) Len() int { return len(t.points) }

func (t *ExactKDTree) QueryKNN(queries []int, k int, exclude ExcludeFunc) [][]Neighbor {
	k = clampK(k, len(t.points))
	out := make([][]Neighbor, len(queries))
	for qi, q := range queries {
		if k == 0 || q < 0 || q >= len(t.points) {
			out[qi] = []Neighbor{}
			continue
		}
		keep := newKNNKeeper(k, q, exclude)
		t.tree.NearestSet(keep, t.points[q])

		ns := make([]Neighbor, 0, k)
		for _, c := range keep.items {
			if c.Comparable == nil {
				continue
			}
			ns = append(ns, Neighbor{Index: c.Comparable.(kdPoint).index, Distance: math.Sqrt(c.Dist)})
		}
		sortNeighbors(ns)
		out[qi] = ns
	}
	return out
}

// kdPoint carries the vertex id through gonum's tree.
type kdPoint struct {
	index  int
	coords kdtree.Point
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(kdPoint).coords[d]
}

func (p kdPoint) Dims() int { return len(p.coords) }

// Distance is squared Euclidean, as gonum's pruning expects.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return p.coords.Distance(c.(kdPoint).coords)
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int                      { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int        { return kdPlane{points: p, dim: d}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

type kdPlane struct {
	points kdPoints
	dim    kdtree.Dim
}

func (p kdPlane) Len() int { return len(p.points) }
func (p kdPlane) Less(i, j int) bool {
	return p.points[i].coords[p.dim] < p.points[j].coords[p.dim]
}
func (p kdPlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	return kdPlane{points: p.points[start:end], dim: p.dim}
}
func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

// knnKeeper is a kdtree.Keeper holding the k best candidates, ordered by
// distance then vertex id so that ties resolve like Brute. Like gonum's
// NKeeper it starts with a +Inf sentinel that the first k finds displace.
type knnKeeper struct {
	items   []kdtree.ComparableDist
	k       int
	q       int
	exclude ExcludeFunc
}

func newKNNKeeper(k, q int, exclude ExcludeFunc) *knnKeeper {
	h := make([]kdtree.ComparableDist, 1, k+1)
	h[0] = kdtree.ComparableDist{Dist: math.Inf(1)}
	return &knnKeeper{items: h, k: k, q: q, exclude: exclude}
}

func keeperIndex(c kdtree.ComparableDist) int {
	if c.Comparable == nil {
		return math.MaxInt
	}
	return c.Comparable.(kdPoint).index
}

// after reports whether a ranks behind b.
func after(a, b kdtree.ComparableDist) bool {
	if a.Dist != b.Dist {
		return a.Dist > b.Dist
	}
	return keeperIndex(a) > keeperIndex(b)
}

func (h *knnKeeper) Len() int           { return len(h.items) }
func (h *knnKeeper) Less(i, j int) bool { return after(h.items[i], h.items[j]) }
func (h *knnKeeper) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *knnKeeper) Push(x any)         { h.items = append(h.items, x.(kdtree.ComparableDist)) }
func (h *knnKeeper) Pop() any {
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last
}

func (h *knnKeeper) Max() kdtree.ComparableDist { return h.items[0] }

func (h *knnKeeper) Keep(c kdtree.ComparableDist) {
	j := keeperIndex(c)
	if j == h.q || (h.exclude != nil && h.exclude(h.q, j)) {
		return
	}
	if !after(h.items[0], c) {
		return
	}
	if h.items[0].Comparable != nil && len(h.items) == h.k {
		heap.Pop(h)
	}
	heap.Push(h, c)
	// the sentinel goes once k real candidates are held
	if len(h.items) == h.k+1 {
		heap.Pop(h)
	}
}
