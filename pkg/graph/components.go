package graph

// Components labels every vertex with its connected component. Labels are
// assigned in order of the smallest vertex of each component.
func (g *Graph) Components() (labels []int, count int) {
	labels = make([]int, g.n)
	for i := range labels {
		labels[i] = -1
	}

	queue := make([]int, 0, g.n)
	for start := 0; start < g.n; start++ {
		if labels[start] >= 0 {
			continue
		}
		labels[start] = count
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range g.Neighbors(v) {
				if labels[w] < 0 {
					labels[w] = count
					queue = append(queue, w)
				}
			}
		}
		count++
	}
	return labels, count
}

// LargestComponent returns the subgraph induced by the largest connected
// component together with the original index of each new vertex. Ties go to
// the component containing the smallest vertex.
func (g *Graph) LargestComponent() (*Graph, []int) {
	labels, count := g.Components()
	if count <= 1 {
		orig := make([]int, g.n)
		for i := range orig {
			orig[i] = i
		}
		return g, orig
	}

	sizes := make([]int, count)
	for _, l := range labels {
		sizes[l]++
	}
	best := 0
	for c := 1; c < count; c++ {
		if sizes[c] > sizes[best] {
			best = c
		}
	}

	remap := make([]int, g.n)
	orig := make([]int, 0, sizes[best])
	for v, l := range labels {
		if l == best {
			remap[v] = len(orig)
			orig = append(orig, v)
		} else {
			remap[v] = -1
		}
	}

	edges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if remap[e.U] >= 0 && remap[e.V] >= 0 {
			edges = append(edges, Edge{U: remap[e.U], V: remap[e.V]})
		}
	}
	return MustNew(len(orig), edges), orig
}
