package spatial

import (
	"container/heap"
	"slices"
)

// greedy walks layer towards qp and returns the closest node reached
func (h *HNSW) greedy(qp []float64, ep, layer int) int {
	best := ep
	bestD := sqDist(qp, h.point(ep))
	for changed := true; changed; {
		changed = false
		if layer >= len(h.nodes[best].friends) {
			break
		}
		for _, f := range h.nodes[best].friends[layer] {
			if d := sqDist(qp, h.point(f)); d < bestD {
				best, bestD, changed = f, d, true
			}
		}
	}
	return best
}

// searchLayer is the beam search of width ef at one layer. It returns every
// candidate retained in the beam, unordered.
func (h *HNSW) searchLayer(qp []float64, ep, ef, layer int) []candidate {
	visited := map[int]struct{}{ep: {}}
	start := candidate{index: ep, d2: sqDist(qp, h.point(ep))}

	cands := minQueue{start}
	w := maxQueue{start}

	for cands.Len() > 0 {
		c := heap.Pop(&cands).(candidate)
		if c.d2 > w[0].d2 && w.Len() >= ef {
			break
		}

		node := &h.nodes[c.index]
		if layer >= len(node.friends) {
			continue
		}
		for _, f := range node.friends[layer] {
			if _, seen := visited[f]; seen {
				continue
			}
			visited[f] = struct{}{}

			fc := candidate{index: f, d2: sqDist(qp, h.point(f))}
			if w.Len() < ef || farther(w[0], fc) {
				heap.Push(&cands, fc)
				heap.Push(&w, fc)
				if w.Len() > ef {
					heap.Pop(&w)
				}
			}
		}
	}
	return w
}

// nearest returns the m closest candidates in ascending order.
func nearest(cands []candidate, m int) []candidate {
	sorted := slices.Clone(cands)
	slices.SortFunc(sorted, func(a, b candidate) int {
		switch {
		case farther(b, a):
			return -1
		case farther(a, b):
			return 1
		default:
			return 0
		}
	})
	if len(sorted) > m {
		sorted = sorted[:m]
	}
	return sorted
}
