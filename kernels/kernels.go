// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/x448/float16"

	"github.com/born-ml/parkit/internal/kernels"
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/parallel"
)

// Real is the constraint for scannable and reducible element types.
type Real = numeric.Real

// Complex is the constraint for complex element types.
type Complex = numeric.Complex

// ExclusivePrefixSum replaces a[i] with the sum of the original a[0:i] for
// i < n. a[0] becomes 0; n == 0 is a no-op.
func ExclusivePrefixSum[T Real](s parallel.Space, n int, a []T) {
	kernels.ExclusivePrefixSum(s, n, a)
}

// InclusivePrefixSum replaces a[i] with the sum of the original a[0:i+1]
// for i < n.
func InclusivePrefixSum[T Real](s parallel.Space, n int, a []T) {
	kernels.InclusivePrefixSum(s, n, a)
}

// Sum returns the sum of a[0:n].
func Sum[T Real](s parallel.Space, n int, a []T) T {
	return kernels.Sum(s, n, a)
}

// DiffSum returns the sum of end[i] - begin[i] for i < n. Lengths are the
// caller's responsibility.
func DiffSum[T Real](s parallel.Space, n int, begin, end []T) T {
	return kernels.DiffSum(s, n, begin, end)
}

// ApproximatelyEqual reports whether len(a) == len(b) and
// |a[i] - b[i]| <= eps for every i.
func ApproximatelyEqual[T Real](s parallel.Space, a, b []T, eps T) bool {
	return kernels.ApproximatelyEqual(s, a, b, eps)
}

// ApproximatelyEqualComplex compares by the modulus of the difference.
func ApproximatelyEqualComplex[T Complex](s parallel.Space, a, b []T, eps float64) bool {
	return kernels.ApproximatelyEqualComplex(s, a, b, eps)
}

// ApproximatelyEqualFloat16 compares half precision arrays in float32.
func ApproximatelyEqualFloat16(s parallel.Space, a, b []float16.Float16, eps float32) bool {
	return kernels.ApproximatelyEqualFloat16(s, a, b, eps)
}

// ApproximatelyEqualFunc compares with a caller supplied magnitude of the
// difference of two elements.
func ApproximatelyEqualFunc[T any, M Real](s parallel.Space, a, b []T, eps M, mag func(x, y T) M) bool {
	return kernels.ApproximatelyEqualFunc(s, a, b, eps, mag)
}
