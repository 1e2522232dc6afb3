package layout

import "math/rand/v2"

// sampler draws k distinct items from [0, n) with a partial Fisher-Yates
// shuffle over a permutation kept between draws, so each draw costs O(k).
type sampler struct {
	perm []int
}

func newSampler(n int) *sampler {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return &sampler{perm: perm}
}

// sample returns k distinct indices. The returned slice is owned by the caller.
func (s *sampler) sample(rng *rand.Rand, k int) []int {
	n := len(s.perm)
	k = min(k, n)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
	}
	return append([]int(nil), s.perm[:k]...)
}
