package parallel

import "github.com/born-ml/parkit/internal/numeric"

// Reduce runs body(i, &acc) for every i in [0, n) and returns the sum of all
// accumulators. Each chunk owns one accumulator initialised to zero; chunk
// accumulators are combined pairwise. The combination order is unspecified,
// so floating point results may differ between partitionings.
//
// Like Scan, Reduce panics if s splits [0, n) into anything other than
// ordered, non-empty, disjoint ranges covering it exactly.
func Reduce[T numeric.Real](s Space, n int, body func(i int, acc *T)) T {
	if n <= 0 {
		return 0
	}

	ranges := s.Split(n)
	checkRanges(s, ranges, n)

	partials := make([]T, len(ranges))
	s.Launch(ranges, func(chunk int, r Range) {
		var acc T
		for i := r.Lo; i < r.Hi; i++ {
			body(i, &acc)
		}
		partials[chunk] = acc
	})
	return combine(partials)
}

// combine sums p with a pairwise tree. p is overwritten.
func combine[T numeric.Real](p []T) T {
	for len(p) > 1 {
		half := (len(p) + 1) / 2
		for i := 0; i+half < len(p); i++ {
			p[i] += p[i+half]
		}
		p = p[:half]
	}
	return p[0]
}
