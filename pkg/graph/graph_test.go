package graph

import (
	"errors"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges []Edge
		want  error
	}{
		{"zero vertices", 0, nil, ErrInvalidParameter},
		{"negative vertices", -3, nil, ErrInvalidParameter},
		{"endpoint too large", 3, []Edge{{0, 1}, {1, 3}}, ErrInvalidGraph},
		{"negative endpoint", 3, []Edge{{-1, 2}}, ErrInvalidGraph},
		{"valid", 3, []Edge{{0, 1}, {1, 2}}, nil},
		{"single vertex no edges", 1, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.n, tt.edges)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("New() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_ErrorContext(t *testing.T) {
	_, err := New(2, []Edge{{0, 1}, {0, 5}})
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.Edge != 1 {
		t.Errorf("Edge = %d, want 1", gerr.Edge)
	}
}

func TestDuplicatesAndSelfLoops(t *testing.T) {
	g := MustNew(3, []Edge{{0, 1}, {1, 0}, {1, 1}, {0, 1}, {2, 1}})

	if g.M() != 5 {
		t.Errorf("M() = %d, want 5 (input kept verbatim)", g.M())
	}
	if g.UniqueEdges() != 2 {
		t.Errorf("UniqueEdges() = %d, want 2", g.UniqueEdges())
	}
	if g.Degree(1) != 2 {
		t.Errorf("Degree(1) = %d, want 2", g.Degree(1))
	}
	if g.Adjacent(1, 1) {
		t.Error("self-loop should not make a vertex adjacent to itself")
	}
	if !g.Adjacent(2, 1) || !g.Adjacent(1, 2) {
		t.Error("Adjacent should be symmetric")
	}
	if g.Adjacent(0, 2) {
		t.Error("0 and 2 are not adjacent")
	}
}

func TestNeighborsSorted(t *testing.T) {
	g := MustNew(5, []Edge{{4, 2}, {2, 0}, {3, 2}, {2, 1}})
	got := g.Neighbors(2)
	want := []int{0, 1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(2) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Neighbors(2) = %v, want %v", got, want)
		}
	}
	if g.MaxDegree() != 4 {
		t.Errorf("MaxDegree() = %d, want 4", g.MaxDegree())
	}
}

func TestLargestComponent(t *testing.T) {
	// {0,1}, {2,3,4}, {5}
	g := MustNew(6, []Edge{{0, 1}, {2, 3}, {3, 4}})

	_, count := g.Components()
	if count != 3 {
		t.Fatalf("Components() count = %d, want 3", count)
	}

	sub, orig := g.LargestComponent()
	if sub.N() != 3 {
		t.Fatalf("largest component has %d vertices, want 3", sub.N())
	}
	if orig[0] != 2 || orig[2] != 4 {
		t.Errorf("orig = %v, want [2 3 4]", orig)
	}
	if sub.UniqueEdges() != 2 {
		t.Errorf("sub edges = %d, want 2", sub.UniqueEdges())
	}
}
