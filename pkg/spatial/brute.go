package spatial

// Brute is an exact linear scan. It is the reference the approximate
// strategies are tested against.
type Brute struct {
	flat []float64
	dim  int
	n    int
}

// NewBrute creates an empty exact index.
func NewBrute() *Brute {
	return &Brute{}
}

func (b *Brute) Build(points [][]float64) error {
	flat, dim, err := flatten(points, b.dim)
	if err != nil {
		return err
	}
	b.flat, b.dim, b.n = flat, dim, len(points)
	return nil
}

func (b *Brute) Len() int { return b.n }

func (b *Brute) point(i int) []float64 {
	return b.flat[i*b.dim : (i+1)*b.dim]
}

func (b *Brute) QueryKNN(queries []int, k int, exclude ExcludeFunc) [][]Neighbor {
	k = clampK(k, b.n)
	out := make([][]Neighbor, len(queries))
	for qi, q := range queries {
		if k == 0 || q < 0 || q >= b.n {
			out[qi] = []Neighbor{}
			continue
		}
		top := newTopK(k)
		qp := b.point(q)
		for j := 0; j < b.n; j++ {
			if j == q || (exclude != nil && exclude(q, j)) {
				continue
			}
			top.offer(candidate{index: j, d2: sqDist(qp, b.point(j))})
		}
		out[qi] = top.result()
	}
	return out
}
