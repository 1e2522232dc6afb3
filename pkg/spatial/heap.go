package spatial

import (
	"container/heap"
	"math"
)

type candidate struct {
	index int
	d2    float64
}

// farther orders candidates by squared distance, larger index losing ties.
func farther(a, b candidate) bool {
	if a.d2 != b.d2 {
		return a.d2 > b.d2
	}
	return a.index > b.index
}

// maxQueue is a max-heap; the root is the worst retained candidate.
type maxQueue []candidate

func (q maxQueue) Len() int           { return len(q) }
func (q maxQueue) Less(i, j int) bool { return farther(q[i], q[j]) }
func (q maxQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *maxQueue) Push(x any)        { *q = append(*q, x.(candidate)) }
func (q *maxQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// minQueue is a min-heap used for HNSW candidate expansion.
type minQueue []candidate

func (q minQueue) Len() int           { return len(q) }
func (q minQueue) Less(i, j int) bool { return farther(q[j], q[i]) }
func (q minQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *minQueue) Push(x any)        { *q = append(*q, x.(candidate)) }
func (q *minQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// topK keeps the k nearest candidates offered to it.
type topK struct {
	k int
	q maxQueue
}

func newTopK(k int) *topK {
	return &topK{k: k, q: make(maxQueue, 0, k+1)}
}

func (t *topK) offer(c candidate) {
	if t.k <= 0 {
		return
	}
	if len(t.q) < t.k {
		heap.Push(&t.q, c)
		return
	}
	if farther(t.q[0], c) {
		t.q[0] = c
		heap.Fix(&t.q, 0)
	}
}

func (t *topK) full() bool { return len(t.q) >= t.k }

// worst returns the squared distance of the worst retained candidate, or +Inf
// while the set is not yet full.
func (t *topK) worst() float64 {
	if !t.full() {
		return math.Inf(1)
	}
	return t.q[0].d2
}

func (t *topK) result() []Neighbor {
	out := make([]Neighbor, len(t.q))
	for i, c := range t.q {
		out[i] = Neighbor{Index: c.index, Distance: math.Sqrt(c.d2)}
	}
	sortNeighbors(out)
	return out
}
