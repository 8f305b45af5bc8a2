package kernels

import (
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

// Sum returns the sum of a[0:n]. An empty range sums to 0.
func Sum[T numeric.Real](s parallel.Space, n int, a []T) T {
	a = a[:n]
	return parallel.Reduce(s, n, func(i int, acc *T) {
		*acc += a[i]
	})
}

// DiffSum returns the sum of end[i] - begin[i] for i < n, e.g. the number of
// entries of a CSR matrix given its row begin and row end offsets.
//
// Lengths are not validated; both slices must hold at least n elements.
// Negative terms are allowed and reduce the total.
func DiffSum[T numeric.Real](s parallel.Space, n int, begin, end []T) T {
	return parallel.Reduce(s, n, func(i int, acc *T) {
		*acc += end[i] - begin[i]
	})
}
