package generators

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/graphem/pkg/graph"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 99))
}

// simple reports whether g has no self-loops or duplicate edges.
func simple(g *graph.Graph) bool {
	if g.M() != g.UniqueEdges() {
		return false
	}
	for _, e := range g.Edges() {
		if e.U == e.V {
			return false
		}
	}
	return true
}

func TestErdosRenyi(t *testing.T) {
	g, err := ErdosRenyi(newRand(1), 200, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	// expected 0.05 * 19900 = 995
	if g.M() < 850 || g.M() > 1150 {
		t.Errorf("M = %d, want around 995", g.M())
	}
	if !simple(g) {
		t.Error("graph is not simple")
	}

	full, _ := ErdosRenyi(newRand(1), 10, 1)
	if full.M() != 45 {
		t.Errorf("p=1 gave %d edges, want 45", full.M())
	}
	empty, _ := ErdosRenyi(newRand(1), 10, 0)
	if empty.M() != 0 {
		t.Errorf("p=0 gave %d edges", empty.M())
	}
}

func TestBarabasiAlbert(t *testing.T) {
	g, err := BarabasiAlbert(newRand(2), 500, 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := 3 * (500 - 3); g.M() != want {
		t.Errorf("M = %d, want %d", g.M(), want)
	}
	if !simple(g) {
		t.Error("graph is not simple")
	}
	// preferential attachment produces hubs
	if g.MaxDegree() < 20 {
		t.Errorf("max degree %d, expected a hub", g.MaxDegree())
	}
}

func TestWattsStrogatz(t *testing.T) {
	lattice, err := WattsStrogatz(newRand(3), 20, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	for v := 0; v < 20; v++ {
		if lattice.Degree(v) != 4 {
			t.Fatalf("lattice degree of %d = %d, want 4", v, lattice.Degree(v))
		}
	}

	g, err := WattsStrogatz(newRand(3), 100, 6, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if g.M() != 300 {
		t.Errorf("rewiring changed the edge count: %d", g.M())
	}
	if !simple(g) {
		t.Error("graph is not simple")
	}
}

func TestRandomRegular(t *testing.T) {
	for _, tc := range []struct{ n, d int }{{10, 3}, {50, 4}, {100, 8}, {7, 0}} {
		g, err := RandomRegular(newRand(4), tc.n, tc.d)
		if err != nil {
			t.Fatalf("RandomRegular(%d,%d): %v", tc.n, tc.d, err)
		}
		for v := 0; v < tc.n; v++ {
			if g.Degree(v) != tc.d {
				t.Fatalf("n=%d d=%d: degree(%d) = %d", tc.n, tc.d, v, g.Degree(v))
			}
		}
		if !simple(g) {
			t.Errorf("n=%d d=%d: graph is not simple", tc.n, tc.d)
		}
	}

	if _, err := RandomRegular(newRand(4), 5, 3); !errors.Is(err, ErrInvalidDegree) {
		t.Errorf("odd n*d: err = %v", err)
	}
}

func TestStochasticBlockModel(t *testing.T) {
	g, err := StochasticBlockModel(newRand(5), []int{20, 20}, [][]float64{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if g.M() != 2*190 {
		t.Errorf("M = %d, want two complete blocks", g.M())
	}
	if _, count := g.Components(); count != 2 {
		t.Errorf("components = %d, want 2", count)
	}

	_, err = StochasticBlockModel(newRand(5), []int{2, 2}, [][]float64{{1, 0}})
	if !errors.Is(err, ErrInvalidProbability) {
		t.Errorf("short probability matrix: err = %v", err)
	}
}

func TestScaleFree(t *testing.T) {
	g, err := ScaleFree(newRand(6), 400)
	if err != nil {
		t.Fatal(err)
	}
	if g.N() != 400 || !simple(g) {
		t.Errorf("N = %d simple = %v", g.N(), simple(g))
	}
}

func TestGeometric(t *testing.T) {
	all, err := Geometric(newRand(7), 30, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if all.M() != 435 {
		t.Errorf("radius covering the unit square gave %d edges, want 435", all.M())
	}
	none, _ := Geometric(newRand(7), 30, 0, 3)
	if none.M() != 0 {
		t.Errorf("radius 0 gave %d edges", none.M())
	}
}

func TestCaveman(t *testing.T) {
	g, err := Caveman(4, 5)
	if err != nil {
		t.Fatal(err)
	}
	if g.N() != 20 || g.M() != 4*10 {
		t.Errorf("N=%d M=%d, want 20 and 40", g.N(), g.M())
	}
	if _, count := g.Components(); count != 1 {
		t.Errorf("connected caveman has %d components", count)
	}

	r, err := RelaxedCaveman(newRand(8), 4, 5, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if r.M() != 40 || !simple(r) {
		t.Errorf("relaxed caveman M=%d simple=%v", r.M(), simple(r))
	}
}

func TestShapes(t *testing.T) {
	s, _ := Star(10)
	if s.N() != 11 || s.Degree(0) != 10 {
		t.Errorf("star: N=%d hub degree=%d", s.N(), s.Degree(0))
	}
	p, _ := Path(5)
	if p.M() != 4 || p.Degree(0) != 1 || p.Degree(2) != 2 {
		t.Error("path has wrong shape")
	}
	c, _ := Cycle(6)
	for v := 0; v < 6; v++ {
		if c.Degree(v) != 2 {
			t.Errorf("cycle degree(%d) = %d", v, c.Degree(v))
		}
	}
	if _, err := Cycle(2); !errors.Is(err, ErrTooFewVertices) {
		t.Errorf("Cycle(2): %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"nil rng", func() error { _, err := ErdosRenyi(nil, 5, 0.5); return err }, ErrNeedRandSource},
		{"probability", func() error { _, err := ErdosRenyi(newRand(1), 5, 1.5); return err }, ErrInvalidProbability},
		{"nan probability", func() error { _, err := WattsStrogatz(newRand(1), 10, 2, math.NaN()); return err }, ErrInvalidProbability},
		{"ba m >= n", func() error { _, err := BarabasiAlbert(newRand(1), 3, 3); return err }, ErrInvalidDegree},
		{"zero n", func() error { _, err := Path(0); return err }, ErrTooFewVertices},
		{"unknown kind", func() error { _, err := Generate(newRand(1), Spec{Kind: "lattice"}); return err }, ErrUnknownGenerator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	specs := []Spec{
		{Kind: "erdos_renyi", N: 50, P: 0.1},
		{Kind: "barabasi_albert", N: 50, M: 2},
		{Kind: "watts_strogatz", N: 50, K: 4, P: 0.1},
		{Kind: "random_regular", N: 50, K: 4},
		{Kind: "sbm", Sizes: []int{10, 10}, Probs: [][]float64{{0.5, 0.05}, {0.05, 0.5}}},
		{Kind: "scale_free", N: 50},
		{Kind: "geometric", N: 50, Radius: 0.2},
		{Kind: "caveman", M: 5, K: 4},
		{Kind: "relaxed_caveman", M: 5, K: 4, P: 0.1},
		{Kind: "star", N: 11},
		{Kind: "path", N: 10},
		{Kind: "cycle", N: 10},
	}
	if len(specs) != len(Kinds()) {
		t.Fatalf("%d specs for %d kinds", len(specs), len(Kinds()))
	}
	for _, s := range specs {
		t.Run(s.Kind, func(t *testing.T) {
			a, err := Generate(newRand(11), s)
			if err != nil {
				t.Fatal(err)
			}
			b, _ := Generate(newRand(11), s)
			ea, eb := a.Edges(), b.Edges()
			if len(ea) != len(eb) {
				t.Fatal("same seed gave different graphs")
			}
			for i := range ea {
				if ea[i] != eb[i] {
					t.Fatal("same seed gave different graphs")
				}
			}
		})
	}
}

func TestErdosRenyi_AlwaysSimple(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("edges are simple and in range", prop.ForAll(
		func(seed uint64, n int, p float64) bool {
			g, err := ErdosRenyi(newRand(seed), n, p)
			return err == nil && g.N() == n && simple(g)
		},
		gen.UInt64(),
		gen.IntRange(1, 60),
		gen.Float64Range(0, 1),
	))
	properties.TestingRun(t)
}
