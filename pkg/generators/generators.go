// Package generators builds the synthetic graph families used to exercise
// and benchmark the layout: random, small-world, scale-free, community and
// geometric graphs, plus a few fixed shapes.
//
// Every stochastic generator takes the random source explicitly, so the same
// source state always yields the same edge list. Vertices are 0..n-1 and
// edges are emitted with U < V, without self-loops or duplicates.
package generators

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrTooFewVertices is returned when a size parameter is too small.
	ErrTooFewVertices = errors.New("generators: parameter too small")
	// ErrInvalidProbability is returned for a probability outside [0,1].
	ErrInvalidProbability = errors.New("generators: probability out of range")
	// ErrInvalidDegree is returned when a degree cannot be realized.
	ErrInvalidDegree = errors.New("generators: degree not realizable")
	// ErrNeedRandSource is returned when a stochastic generator gets a nil rng.
	ErrNeedRandSource = errors.New("generators: random source required")
	// ErrConstructFailed is returned when bounded retries are exhausted.
	ErrConstructFailed = errors.New("generators: construction failed")
	// ErrUnknownGenerator is returned by Generate for an unregistered kind.
	ErrUnknownGenerator = errors.New("generators: unknown generator")
)

const (
	methodErdosRenyi     = "ErdosRenyi"
	methodBarabasiAlbert = "BarabasiAlbert"
	methodWattsStrogatz  = "WattsStrogatz"
	methodRandomRegular  = "RandomRegular"
	methodSBM            = "StochasticBlockModel"
	methodScaleFree      = "ScaleFree"
	methodGeometric      = "Geometric"
	methodCaveman        = "Caveman"
	methodRelaxedCaveman = "RelaxedCaveman"
	methodStar           = "Star"
	methodPath           = "Path"
	methodCycle          = "Cycle"

	maxRegularAttempts = 100
)

func checkMin(method, name string, got, minimum int) error {
	if got < minimum {
		return fmt.Errorf("%s: %s=%d < min=%d: %w", method, name, got, minimum, ErrTooFewVertices)
	}
	return nil
}

func checkProbability(method string, p float64) error {
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%s: p=%.6f not in [0,1]: %w", method, p, ErrInvalidProbability)
	}
	return nil
}

func checkRand(method string, rng *rand.Rand) error {
	if rng == nil {
		return fmt.Errorf("%s: %w", method, ErrNeedRandSource)
	}
	return nil
}
