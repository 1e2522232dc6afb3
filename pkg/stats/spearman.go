// Package stats holds the rank statistics used to compare embedding radii
// with centrality measures.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrLengthMismatch is returned when two samples differ in length.
	ErrLengthMismatch = errors.New("stats: samples differ in length")
	// ErrTooFewSamples is returned when fewer than three pairs are given.
	ErrTooFewSamples = errors.New("stats: need at least 3 samples")
)

// Correlation is a rank correlation and its two-sided p-value. Rho is NaN
// when either sample is constant.
type Correlation struct {
	Rho float64 `json:"rho"`
	P   float64 `json:"p"`
	N   int     `json:"n"`
}

// String formats the correlation for reports.
func (c Correlation) String() string {
	return fmt.Sprintf("rho=%.3f p=%.3g", c.Rho, c.P)
}

// Ranks assigns 1-based ranks, giving tied values the mean of their ranks.
func Ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		// positions i..j-1 share the average of ranks i+1..j
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// Spearman returns Spearman's rho, computed as the Pearson correlation of
// the average ranks, with a p-value from the t distribution on n-2 degrees
// of freedom.
func Spearman(x, y []float64) (Correlation, error) {
	if len(x) != len(y) {
		return Correlation{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return Correlation{}, ErrTooFewSamples
	}

	rx, ry := Ranks(x), Ranks(y)
	if constant(rx) || constant(ry) {
		return Correlation{Rho: math.NaN(), P: math.NaN(), N: n}, nil
	}
	rho, err := mstats.Pearson(rx, ry)
	if err != nil {
		return Correlation{}, fmt.Errorf("pearson on ranks: %w", err)
	}
	rho = math.Max(-1, math.Min(1, rho))

	return Correlation{Rho: rho, P: pValue(rho, n), N: n}, nil
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// pValue is the two-sided p-value of t = rho*sqrt((n-2)/(1-rho^2)).
func pValue(rho float64, n int) float64 {
	df := float64(n - 2)
	if math.Abs(rho) >= 1 {
		return 0
	}
	t := rho * math.Sqrt(df/(1-rho*rho))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.CDF(-math.Abs(t)))
}

// Summary describes a sample for benchmark tables.
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize returns the mean, median, standard deviation and range of x.
func Summarize(x []float64) (Summary, error) {
	data := mstats.Float64Data(x)
	var s Summary
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, err
	}
	if s.Median, err = data.Median(); err != nil {
		return Summary{}, err
	}
	if s.StdDev, err = data.StandardDeviation(); err != nil {
		return Summary{}, err
	}
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, err
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
