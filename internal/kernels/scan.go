// Package kernels implements the scan, reduction and comparison primitives
// used to build sparse offset arrays.
package kernels

import (
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

// exclusiveScanner writes the exclusive prefix into the array it reads.
type exclusiveScanner[T numeric.Real] struct {
	a []T
}

func (s exclusiveScanner[T]) Combine(i int) T {
	return s.a[i]
}

func (s exclusiveScanner[T]) Commit(i int, prefix, _ T) {
	s.a[i] = prefix
}

// inclusiveScanner writes the inclusive prefix into the array it reads.
type inclusiveScanner[T numeric.Real] struct {
	a []T
}

func (s inclusiveScanner[T]) Combine(i int) T {
	return s.a[i]
}

func (s inclusiveScanner[T]) Commit(i int, prefix, v T) {
	s.a[i] = prefix + v
}

// ExclusivePrefixSum replaces a[i] with the sum of the original a[0:i] for
// every i < n. a[0] becomes 0. Sums over integer types are exact, so the
// result can be used directly as CSR row pointers.
//
// Example:
//
//	a := []int32{1, 2, 3, 4}
//	kernels.ExclusivePrefixSum(space, len(a), a)
//	// a = [0, 1, 3, 6]
func ExclusivePrefixSum[T numeric.Real](s parallel.Space, n int, a []T) {
	parallel.Scan[T](s, n, exclusiveScanner[T]{a: a[:n]})
}

// InclusivePrefixSum replaces a[i] with the sum of the original a[0:i+1] for
// every i < n. a[n-1] ends holding the total.
//
// Example:
//
//	a := []int32{1, 2, 3, 4}
//	kernels.InclusivePrefixSum(space, len(a), a)
//	// a = [1, 3, 6, 10]
func InclusivePrefixSum[T numeric.Real](s parallel.Space, n int, a []T) {
	parallel.Scan[T](s, n, inclusiveScanner[T]{a: a[:n]})
}
