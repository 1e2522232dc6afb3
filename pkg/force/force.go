// Package force turns a sampled batch of edges and kNN partners into
// per-vertex displacements.
//
// Attraction pulls the endpoints of an edge together by KAttr*(d-LMin) each
// once d exceeds LMin. Repulsion pushes a batch vertex and each of its
// non-adjacent neighbours apart by KInter/max(d, Epsilon). Every single
// contribution and every accumulated per-vertex displacement is clamped to
// MaxStep, so a step can never produce non-finite positions.
package force

import (
	"math"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/parallel"
	"github.com/dd0wney/graphem/pkg/spatial"
)

// DefaultEpsilon is the distance floor used before inverting a distance.
const DefaultEpsilon = 1e-4

// Model holds the force coefficients. It is immutable and stateless.
type Model struct {
	LMin    float64
	KAttr   float64
	KInter  float64
	MaxStep float64
	Epsilon float64
}

// Stats counts the silent stabilizations applied during one Compute call.
type Stats struct {
	ClampedAttraction int
	ClampedRepulsion  int
	ClampedVertices   int
	EpsilonDistances  int
	SelfLoops         int
	NonFinite         int
}

// Add merges o into s.
func (s *Stats) Add(o Stats) {
	s.ClampedAttraction += o.ClampedAttraction
	s.ClampedRepulsion += o.ClampedRepulsion
	s.ClampedVertices += o.ClampedVertices
	s.EpsilonDistances += o.EpsilonDistances
	s.SelfLoops += o.SelfLoops
	s.NonFinite += o.NonFinite
}

// Batch is the sampled work of one iteration.
type Batch struct {
	// Edges sampled for attraction
	Edges []graph.Edge
	// Vertices sampled for repulsion, with Neighbors[i] the partners of
	// Vertices[i]
	Vertices  []int
	Neighbors [][]spatial.Neighbor
}

// Compute returns the displacement of every vertex for one iteration.
// positions is read only.
func (m Model) Compute(positions [][]float64, b Batch) ([][]float64, Stats) {
	disp := zeros(len(positions), dimOf(positions))
	var st Stats
	m.attract(positions, b.Edges, disp, &st)
	m.repel(positions, b.Vertices, b.Neighbors, disp, &st)
	m.clampVertices(disp, &st)
	return disp, st
}

// ComputeParallel splits the batch into lanes run on pool. Each lane fills
// its own buffer and buffers are summed in lane order, so the result only
// depends on the lane count, not on scheduling.
func (m Model) ComputeParallel(pool *parallel.WorkerPool, lanes int, positions [][]float64, b Batch) ([][]float64, Stats, error) {
	if pool == nil || lanes <= 1 {
		disp, st := m.Compute(positions, b)
		return disp, st, nil
	}

	n, dim := len(positions), dimOf(positions)
	edgeParts := parallel.Split(len(b.Edges), lanes)
	vertParts := parallel.Split(len(b.Vertices), lanes)
	nLanes := max(len(edgeParts), len(vertParts))

	bufs := make([][][]float64, nLanes)
	stats := make([]Stats, nLanes)
	tasks := make([]func(), nLanes)
	for lane := 0; lane < nLanes; lane++ {
		tasks[lane] = func() {
			buf := zeros(n, dim)
			if lane < len(edgeParts) {
				r := edgeParts[lane]
				m.attract(positions, b.Edges[r[0]:r[1]], buf, &stats[lane])
			}
			if lane < len(vertParts) {
				r := vertParts[lane]
				m.repel(positions, b.Vertices[r[0]:r[1]], b.Neighbors[r[0]:r[1]], buf, &stats[lane])
			}
			bufs[lane] = buf
		}
	}
	if err := pool.Run(tasks); err != nil {
		return nil, Stats{}, err
	}

	disp := bufs[0]
	var st Stats
	st.Add(stats[0])
	for lane := 1; lane < nLanes; lane++ {
		for v := range disp {
			for d := range disp[v] {
				disp[v][d] += bufs[lane][v][d]
			}
		}
		st.Add(stats[lane])
	}
	m.clampVertices(disp, &st)
	return disp, st, nil
}

func (m Model) attract(positions [][]float64, edges []graph.Edge, disp [][]float64, st *Stats) {
	for _, e := range edges {
		if e.U == e.V {
			st.SelfLoops++
			continue
		}
		pu, pv := positions[e.U], positions[e.V]
		d := distance(pu, pv)
		if d <= m.LMin {
			continue
		}
		mag := m.KAttr * (d - m.LMin)
		if mag > m.MaxStep {
			mag = m.MaxStep
			st.ClampedAttraction++
		}
		scale := mag / d
		if !finite(scale) {
			st.NonFinite++
			continue
		}
		for k := range pu {
			delta := (pv[k] - pu[k]) * scale
			disp[e.U][k] += delta
			disp[e.V][k] -= delta
		}
	}
}

func (m Model) repel(positions [][]float64, vertices []int, neighbors [][]spatial.Neighbor, disp [][]float64, st *Stats) {
	for i, v := range vertices {
		if i >= len(neighbors) {
			break
		}
		pv := positions[v]
		for _, nb := range neighbors[i] {
			j := nb.Index
			pj := positions[j]
			d := distance(pv, pj)

			eff := d
			if eff < m.Epsilon {
				eff = m.Epsilon
				st.EpsilonDistances++
			}
			mag := m.KInter / eff
			if mag > m.MaxStep {
				mag = m.MaxStep
				st.ClampedRepulsion++
			}
			if !finite(mag) {
				st.NonFinite++
				continue
			}

			if d > 0 {
				scale := mag / d
				for k := range pv {
					delta := (pv[k] - pj[k]) * scale
					disp[v][k] += delta
					disp[j][k] -= delta
				}
				continue
			}
			// Coincident points: separate along an axis picked from the
			// pair so different pairs spread in different directions.
			axis := (v + j) % len(pv)
			sign := 1.0
			if v < j {
				sign = -1.0
			}
			disp[v][axis] += sign * mag
			disp[j][axis] -= sign * mag
		}
	}
}

func (m Model) clampVertices(disp [][]float64, st *Stats) {
	for v := range disp {
		norm := 0.0
		for _, x := range disp[v] {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if !finite(norm) {
			for k := range disp[v] {
				disp[v][k] = 0
			}
			st.NonFinite++
			continue
		}
		if norm > m.MaxStep {
			scale := m.MaxStep / norm
			for k := range disp[v] {
				disp[v][k] *= scale
			}
			st.ClampedVertices++
		}
	}
}

func distance(a, b []float64) float64 {
	sum := 0.0
	for k := range a {
		d := a[k] - b[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func dimOf(positions [][]float64) int {
	if len(positions) == 0 {
		return 0
	}
	return len(positions[0])
}

func zeros(n, dim int) [][]float64 {
	flat := make([]float64, n*dim)
	out := make([][]float64, n)
	for i := range out {
		out[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out
}
