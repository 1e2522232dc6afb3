// Package spatial answers approximate k-nearest-neighbour queries over the
// current vertex positions. Indexes are rebuilt from scratch every layout
// iteration and are safe for concurrent queries once built.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrMalformedPoints is returned by Build for ragged, empty or non-finite rows
	ErrMalformedPoints = errors.New("malformed points")
	// ErrDimensionMismatch is returned when a rebuild changes the dimension
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrUnknownIndex is returned by New for an unregistered kind
	ErrUnknownIndex = errors.New("unknown index kind")
)

// Neighbor is one kNN result.
type Neighbor struct {
	Index    int
	Distance float64
}

// ExcludeFunc reports whether candidate j must be skipped for query i.
type ExcludeFunc func(i, j int) bool

// Index is the capability the layout engine depends on.
type Index interface {
	// Build indexes points. The index keeps its own copy.
	Build(points [][]float64) error
	// QueryKNN returns, for every query vertex, up to k neighbours ordered by
	// ascending distance (ties by ascending index). The query vertex itself
	// is never returned; exclude may be nil.
	QueryKNN(queries []int, k int, exclude ExcludeFunc) [][]Neighbor
	// Len returns the number of indexed points.
	Len() int
}

// Kinds lists the names accepted by New.
func Kinds() []string {
	return []string{KindKDTree, KindExactKDTree, KindHNSW, KindBrute}
}

const (
	KindKDTree      = "kdtree"
	KindExactKDTree = "kdtree-exact"
	KindHNSW        = "hnsw"
	KindBrute       = "brute"
)

type options struct {
	leafSize  int
	maxLeaves int

	m              int
	efConstruction int
	efSearch       int
	seed           uint64
}

func defaultOptions() options {
	return options{
		leafSize:       8,
		maxLeaves:      32,
		m:              8,
		efConstruction: 64,
		efSearch:       32,
		seed:           1,
	}
}

// Option configures an index built by New or a constructor.
type Option func(*options)

// WithLeafSize sets the kd-tree bucket size.
func WithLeafSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.leafSize = n
		}
	}
}

// WithMaxLeaves bounds how many kd-tree leaves one query may visit.
// Zero or negative means unbounded (exact search).
func WithMaxLeaves(n int) Option {
	return func(o *options) { o.maxLeaves = n }
}

// WithHNSW sets M, efConstruction and efSearch.
func WithHNSW(m, efConstruction, efSearch int) Option {
	return func(o *options) {
		if m > 1 {
			o.m = m
		}
		if efConstruction > 0 {
			o.efConstruction = efConstruction
		}
		if efSearch > 0 {
			o.efSearch = efSearch
		}
	}
}

// WithSeed seeds the HNSW level generator.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// New returns an index of the given kind.
func New(kind string, opts ...Option) (Index, error) {
	switch kind {
	case KindKDTree, "":
		return NewKDTree(opts...), nil
	case KindExactKDTree:
		return NewExactKDTree(), nil
	case KindHNSW:
		return NewHNSW(opts...), nil
	case KindBrute:
		return NewBrute(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, kind)
	}
}

// flatten validates points and copies them into one contiguous slice.
func flatten(points [][]float64, prevDim int) ([]float64, int, error) {
	if len(points) == 0 {
		return nil, prevDim, nil
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, 0, fmt.Errorf("%w: zero-length row", ErrMalformedPoints)
	}
	if prevDim != 0 && dim != prevDim {
		return nil, 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, dim, prevDim)
	}
	flat := make([]float64, 0, len(points)*dim)
	for i, p := range points {
		if len(p) != dim {
			return nil, 0, fmt.Errorf("%w: row %d has %d coordinates, want %d", ErrMalformedPoints, i, len(p), dim)
		}
		for _, x := range p {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, 0, fmt.Errorf("%w: row %d is not finite", ErrMalformedPoints, i)
			}
		}
		flat = append(flat, p...)
	}
	return flat, dim, nil
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clampK(k, n int) int {
	if k > n-1 {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

// sortNeighbors orders by ascending distance then index.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(a, b int) bool {
		if ns[a].Distance != ns[b].Distance {
			return ns[a].Distance < ns[b].Distance
		}
		return ns[a].Index < ns[b].Index
	})
}
