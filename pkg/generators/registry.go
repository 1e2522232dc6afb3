package generators

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/dd0wney/graphem/pkg/graph"
)

// Spec names a generator and its parameters, as read from config files and
// command-line flags. Only the fields a kind uses are read.
type Spec struct {
	Kind   string      `json:"kind" yaml:"kind" toml:"kind"`
	N      int         `json:"n" yaml:"n" toml:"n"`
	M      int         `json:"m" yaml:"m" toml:"m"`
	K      int         `json:"k" yaml:"k" toml:"k"`
	P      float64     `json:"p" yaml:"p" toml:"p"`
	Radius float64     `json:"radius" yaml:"radius" toml:"radius"`
	Dim    int         `json:"dim" yaml:"dim" toml:"dim"`
	Sizes  []int       `json:"sizes" yaml:"sizes" toml:"sizes"`
	Probs  [][]float64 `json:"probs" yaml:"probs" toml:"probs"`
}

type generatorFunc func(rng *rand.Rand, s Spec) (*graph.Graph, error)

var registry = map[string]generatorFunc{
	"erdos_renyi": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return ErdosRenyi(rng, s.N, s.P)
	},
	"barabasi_albert": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return BarabasiAlbert(rng, s.N, s.M)
	},
	"watts_strogatz": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return WattsStrogatz(rng, s.N, s.K, s.P)
	},
	"random_regular": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return RandomRegular(rng, s.N, s.K)
	},
	"sbm": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return StochasticBlockModel(rng, s.Sizes, s.Probs)
	},
	"scale_free": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return ScaleFree(rng, s.N)
	},
	"geometric": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		dim := s.Dim
		if dim == 0 {
			dim = 2
		}
		return Geometric(rng, s.N, s.Radius, dim)
	},
	"caveman": func(_ *rand.Rand, s Spec) (*graph.Graph, error) {
		return Caveman(s.M, s.K)
	},
	"relaxed_caveman": func(rng *rand.Rand, s Spec) (*graph.Graph, error) {
		return RelaxedCaveman(rng, s.M, s.K, s.P)
	},
	"star": func(_ *rand.Rand, s Spec) (*graph.Graph, error) {
		return Star(s.N - 1)
	},
	"path": func(_ *rand.Rand, s Spec) (*graph.Graph, error) {
		return Path(s.N)
	},
	"cycle": func(_ *rand.Rand, s Spec) (*graph.Graph, error) {
		return Cycle(s.N)
	},
}

// Kinds lists the registered generator names in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Generate builds the graph described by s. For caveman graphs M is the
// number of cliques and K their size; for star graphs N counts the hub.
func Generate(rng *rand.Rand, s Spec) (*graph.Graph, error) {
	gen, ok := registry[s.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, s.Kind)
	}
	return gen(rng, s)
}
