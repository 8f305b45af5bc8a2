package parallel

import (
	"fmt"

	"github.com/born-ml/parkit/internal/numeric"
)

// Scanner describes one prefix scan over an index range.
//
// Combine returns the contribution of index i to the running total. It must
// not have side effects: the scan may call it twice for the same index, once
// while summing chunk totals and once while publishing results.
//
// Commit publishes the result for index i. It is called exactly once per
// index with the exact exclusive prefix (the sum of contributions of all
// indices below i) and the contribution returned by the Combine call of the
// same pass, so the original value does not have to be re-read after Commit
// overwrites it.
type Scanner[T numeric.Real] interface {
	Combine(i int) T
	Commit(i int, prefix, contribution T)
}

// Scan runs sc over [0, n) on s and returns the total of all contributions.
//
// The algorithm is the chunked two-pass scan: every chunk first sums its
// contributions locally, the chunk totals are scanned in chunk order, and
// every chunk then walks its indices again starting from its true prefix.
// A single chunk is handled in one pass.
func Scan[T numeric.Real](s Space, n int, sc Scanner[T]) T {
	if n <= 0 {
		return 0
	}

	ranges := s.Split(n)
	checkRanges(s, ranges, n)

	if len(ranges) == 1 {
		return commitRange(sc, ranges[0], 0)
	}

	totals := make([]T, len(ranges))
	s.Launch(ranges, func(chunk int, r Range) {
		var total T
		for i := r.Lo; i < r.Hi; i++ {
			total += sc.Combine(i)
		}
		totals[chunk] = total
	})

	// Exclusive scan of chunk totals, in place.
	var running T
	for c, total := range totals {
		totals[c] = running
		running += total
	}

	s.Launch(ranges, func(chunk int, r Range) {
		commitRange(sc, r, totals[chunk])
	})
	return running
}

// commitRange publishes every index of r starting from prefix and returns
// the prefix past the end of r.
func commitRange[T numeric.Real](sc Scanner[T], r Range, prefix T) T {
	for i := r.Lo; i < r.Hi; i++ {
		v := sc.Combine(i)
		sc.Commit(i, prefix, v)
		prefix += v
	}
	return prefix
}

// checkRanges panics unless ranges are ordered, non-empty and disjoint and
// cover [0, n) exactly.
func checkRanges(s Space, ranges []Range, n int) {
	next := 0
	for _, r := range ranges {
		if r.Lo != next || r.Hi <= r.Lo {
			panic(fmt.Sprintf("parallel: %s: invalid partition %v of [0, %d)", s.Name(), ranges, n))
		}
		next = r.Hi
	}
	if next != n {
		panic(fmt.Sprintf("parallel: %s: partition %v does not cover [0, %d)", s.Name(), ranges, n))
	}
}
