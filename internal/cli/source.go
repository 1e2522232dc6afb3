package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dd0wney/graphem/pkg/dataset"
	"github.com/dd0wney/graphem/pkg/generators"
	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/logging"
)

// graphSource selects where the graph comes from: an edge list file, a
// registered dataset, or a generator.
type graphSource struct {
	edges   string
	dataset string
	dataDir string
	largest bool
	sample  int
	seed    uint64
	spec    generators.Spec
}

func (s *graphSource) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.edges, "edges", "", "edge list file (SNAP format)")
	fs.StringVar(&s.dataset, "dataset", "", "registered dataset name (see 'graphem datasets')")
	fs.StringVar(&s.dataDir, "data-dir", "data", "directory holding dataset files")
	fs.BoolVar(&s.largest, "largest-component", false, "keep only the largest connected component")
	fs.IntVar(&s.sample, "sample", 0, "keep this many randomly chosen vertices of a loaded graph")
	fs.Uint64Var(&s.seed, "graph-seed", 1, "random seed for generated or sampled graphs")

	fs.StringVarP(&s.spec.Kind, "generator", "g", "barabasi_albert",
		"generator: "+strings.Join(generators.Kinds(), ", "))
	fs.IntVar(&s.spec.N, "n", 200, "number of vertices")
	fs.IntVar(&s.spec.M, "m", 3, "edges per new vertex (barabasi_albert) or clique count (caveman)")
	fs.IntVar(&s.spec.K, "gen-k", 4, "neighbours (watts_strogatz), degree (random_regular) or clique size (caveman)")
	fs.Float64Var(&s.spec.P, "p", 0.05, "edge or rewiring probability")
	fs.Float64Var(&s.spec.Radius, "radius", 0.1, "connection radius (geometric)")
	fs.IntVar(&s.spec.Dim, "gen-dim", 2, "space dimension (geometric)")
}

func (s *graphSource) load(log logging.Logger) (*graph.Graph, error) {
	if s.edges != "" && s.dataset != "" {
		return nil, errors.New("--edges and --dataset are mutually exclusive")
	}
	rng := rand.New(rand.NewPCG(s.seed, s.seed))
	opts := dataset.LoadOptions{LargestComponent: s.largest}

	var (
		loaded *dataset.Loaded
		err    error
	)
	switch {
	case s.edges != "":
		loaded, err = dataset.LoadEdgeList(s.edges, opts)
	case s.dataset != "":
		loaded, err = dataset.NewRegistry(s.dataDir).Load(s.dataset, opts)
	default:
		g, err := generators.Generate(rng, s.spec)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", s.spec.Kind, err)
		}
		log.Info("graph generated", logging.String("generator", s.spec.Kind), logging.Vertices(g.N()), logging.Edges(g.M()))
		return g, nil
	}
	if err != nil {
		return nil, err
	}
	if s.sample > 0 {
		if loaded, err = loaded.Sample(s.sample, rng); err != nil {
			return nil, err
		}
	}
	log.Info("graph loaded", logging.Vertices(loaded.Graph.N()), logging.Edges(loaded.Graph.M()))
	return loaded.Graph, nil
}
