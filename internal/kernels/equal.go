package kernels

import (
	"github.com/x448/float16"

	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

// ApproximatelyEqual reports whether a and b have the same length and
// |a[i] - b[i]| <= eps for every i. A difference of exactly eps counts as
// equal.
//
// Integer differences are compared exactly, also when a[i] - b[i] does not
// fit in T. A negative eps matches only empty arrays.
func ApproximatelyEqual[T numeric.Real](s parallel.Space, a, b []T, eps T) bool {
	if len(a) != len(b) {
		return false
	}
	mismatches := countIf(s, a, b, func(x, y T) bool {
		return numeric.DiffExceeds(x, y, eps)
	})
	s.Fence()
	return mismatches == 0
}

// ApproximatelyEqualComplex compares complex arrays by the modulus of the
// elementwise difference.
func ApproximatelyEqualComplex[T numeric.Complex](s parallel.Space, a, b []T, eps float64) bool {
	return ApproximatelyEqualFunc(s, a, b, eps, numeric.Modulus[T])
}

// ApproximatelyEqualFloat16 compares half precision arrays in float32.
func ApproximatelyEqualFloat16(s parallel.Space, a, b []float16.Float16, eps float32) bool {
	return ApproximatelyEqualFunc(s, a, b, eps, func(x, y float16.Float16) float32 {
		return numeric.AbsDiff(x.Float32(), y.Float32())
	})
}

// ApproximatelyEqualFunc is the general form: mag returns the magnitude of
// the difference of two elements, expressed in the magnitude type M.
func ApproximatelyEqualFunc[T any, M numeric.Real](s parallel.Space, a, b []T, eps M, mag func(x, y T) M) bool {
	if len(a) != len(b) {
		return false
	}
	mismatches := CountMismatches(s, a, b, eps, mag)
	s.Fence()
	return mismatches == 0
}

// CountMismatches returns the number of indices whose difference magnitude
// exceeds eps. a and b must have the same length.
func CountMismatches[T any, M numeric.Real](s parallel.Space, a, b []T, eps M, mag func(x, y T) M) int {
	return countIf(s, a, b, func(x, y T) bool {
		return mag(x, y) > eps
	})
}

// countIf counts the indices where mismatch(a[i], b[i]) holds.
func countIf[T any](s parallel.Space, a, b []T, mismatch func(x, y T) bool) int {
	b = b[:len(a)]
	return parallel.Reduce(s, len(a), func(i int, acc *int) {
		if mismatch(a[i], b[i]) {
			*acc++
		}
	})
}
