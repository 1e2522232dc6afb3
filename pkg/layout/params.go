package layout

import (
	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/validation"
)

// Params are the numeric layout parameters. They are fixed for the life of
// an Engine.
type Params struct {
	// LMin is the rest length below which edges exert no attraction
	LMin float64 `json:"l_min" yaml:"l_min" toml:"l_min"`
	// KAttr scales attraction along sampled edges
	KAttr float64 `json:"k_attr" yaml:"k_attr" toml:"k_attr"`
	// KInter scales inverse-distance repulsion between kNN partners
	KInter float64 `json:"k_inter" yaml:"k_inter" toml:"k_inter"`
	// KNNK is the number of repulsion partners per sampled vertex
	KNNK int `json:"knn_k" yaml:"knn_k" toml:"knn_k"`
	// SampleSize is the number of edges sampled per iteration
	SampleSize int `json:"sample_size" yaml:"sample_size" toml:"sample_size"`
	// BatchSize is the number of vertices sampled per iteration
	BatchSize int `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	Dimension int `json:"dimension" yaml:"dimension" toml:"dimension"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		LMin:       10,
		KAttr:      0.5,
		KInter:     0.1,
		KNNK:       15,
		SampleSize: 512,
		BatchSize:  1024,
		Dimension:  3,
	}
}

// Validate rejects parameters that no graph could make sense of.
func (p Params) Validate() error {
	err := validation.NewConfigValidator("Params").
		Finite("l_min", p.LMin).NonNegativeFloat("l_min", p.LMin).
		Finite("k_attr", p.KAttr).NonNegativeFloat("k_attr", p.KAttr).
		Finite("k_inter", p.KInter).NonNegativeFloat("k_inter", p.KInter).
		NonNegative("knn_k", p.KNNK).
		NonNegative("sample_size", p.SampleSize).
		NonNegative("batch_size", p.BatchSize).
		Positive("dimension", p.Dimension).
		Validate()
	if err != nil {
		return graph.NewError("layout.Params").Detail("%v", err).Cause(ErrInvalidParameter).Err()
	}
	return nil
}

// clampTo limits the count parameters to what g can supply and reports
// which ones changed.
func (p Params) clampTo(g *graph.Graph) (Params, []string) {
	var clamped []string
	if limit := g.N() - 1; p.KNNK > limit {
		p.KNNK = limit
		clamped = append(clamped, "knn_k")
	}
	if p.SampleSize > g.M() {
		p.SampleSize = g.M()
		clamped = append(clamped, "sample_size")
	}
	if p.BatchSize > g.N() {
		p.BatchSize = g.N()
		clamped = append(clamped, "batch_size")
	}
	return p, clamped
}
