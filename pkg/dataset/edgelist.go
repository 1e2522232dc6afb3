// Package dataset loads real-world graphs stored as whitespace separated
// edge lists, the format SNAP and Network Repository distribute.
package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/graphem/pkg/graph"
)

var (
	// ErrMalformedLine is returned for a line that is not two integer IDs.
	ErrMalformedLine = errors.New("dataset: malformed edge line")
	// ErrEmpty is returned when a file holds no edges.
	ErrEmpty = errors.New("dataset: no edges")
)

// Loaded is a parsed edge list. IDs[i] is the identifier vertex i had in
// the file.
type Loaded struct {
	Graph *graph.Graph
	IDs   []int64
}

// LoadOptions controls post-processing of a loaded edge list.
type LoadOptions struct {
	// LargestComponent keeps only the largest connected component
	LargestComponent bool
}

// LoadEdgeList memory-maps path and parses it.
func LoadEdgeList(path string, opts LoadOptions) (*Loaded, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open edge list: %w", err)
	}
	defer r.Close()

	l, err := ParseEdgeList(io.NewSectionReader(r, 0, int64(r.Len())))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if opts.LargestComponent {
		l = l.largestComponent()
	}
	return l, nil
}

// ParseEdgeList reads "u v" pairs, one per line. Lines starting with '#'
// or '%' are comments, extra columns such as weights or timestamps are
// ignored, and sparse IDs are renumbered densely in order of appearance.
func ParseEdgeList(r io.Reader) (*Loaded, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	index := make(map[int64]int)
	var ids []int64
	vertex := func(id int64) int {
		v, ok := index[id]
		if !ok {
			v = len(ids)
			index[id] = v
			ids = append(ids, id)
		}
		return v
	}

	var edges []graph.Edge
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' || text[0] == '%' {
			continue
		}
		fields := bytes.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedLine, line, text)
		}
		u, err := strconv.ParseInt(string(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedLine, line, err)
		}
		v, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedLine, line, err)
		}
		edges = append(edges, graph.Edge{U: vertex(u), V: vertex(v)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read edge list: %w", err)
	}
	if len(edges) == 0 {
		return nil, ErrEmpty
	}

	g, err := graph.New(len(ids), edges)
	if err != nil {
		return nil, err
	}
	return &Loaded{Graph: g, IDs: ids}, nil
}

func (l *Loaded) largestComponent() *Loaded {
	sub, orig := l.Graph.LargestComponent()
	if sub == l.Graph {
		return l
	}
	ids := make([]int64, len(orig))
	for i, v := range orig {
		ids[i] = l.IDs[v]
	}
	return &Loaded{Graph: sub, IDs: ids}
}

// Sample keeps k vertices chosen uniformly and the edges between them.
// Vertex order follows the original order.
func (l *Loaded) Sample(k int, rng *rand.Rand) (*Loaded, error) {
	n := l.Graph.N()
	if k >= n {
		return l, nil
	}
	if k < 1 {
		return nil, graph.NewError("dataset.Sample").Param("k", k).Cause(graph.ErrInvalidParameter).Err()
	}

	keep := rng.Perm(n)[:k]
	slices.Sort(keep)
	remap := make([]int, n)
	for i := range remap {
		remap[i] = -1
	}
	ids := make([]int64, k)
	for i, v := range keep {
		remap[v] = i
		ids[i] = l.IDs[v]
	}

	var edges []graph.Edge
	for _, e := range l.Graph.Edges() {
		if remap[e.U] >= 0 && remap[e.V] >= 0 {
			edges = append(edges, graph.Edge{U: remap[e.U], V: remap[e.V]})
		}
	}
	g, err := graph.New(k, edges)
	if err != nil {
		return nil, err
	}
	return &Loaded{Graph: g, IDs: ids}, nil
}
