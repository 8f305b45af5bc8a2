// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package parallel provides the execution space abstraction used by every
// parkit primitive, together with the generic for, scan and reduce
// building blocks.
//
// A Space splits an index range into chunks and runs them, possibly
// concurrently. Implementations live in backend/cpu (goroutine pool) and
// backend/webgpu (GPU device with a host pool); Serial runs everything on
// the calling goroutine.
//
// Example:
//
//	space := cpu.New()
//	total := parallel.Reduce(space, len(xs), func(i int, acc *int64) {
//	    *acc += xs[i]
//	})
package parallel

import (
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

// Space is an execution space. See the internal contract on Split, Launch
// and Fence: ranges are contiguous and ascending, Launch blocks, Fence waits
// for work launched from any goroutine.
type Space = parallel.Space

// Range is the half-open index interval [Lo, Hi).
type Range = parallel.Range

// Config controls how CPU spaces split work.
type Config = parallel.Config

// Serial runs every chunk on the calling goroutine.
type Serial = parallel.Serial

// PanicError is re-raised on the launching goroutine when a worker panics.
type PanicError = parallel.PanicError

// Real is the constraint satisfied by every scannable element type.
type Real = numeric.Real

// Scanner describes one prefix scan: Combine is pure and may run twice per
// index, Commit runs exactly once per index with the exclusive prefix.
type Scanner[T Real] = parallel.Scanner[T]

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// LoadConfig returns DefaultConfig with PARKIT_* environment overrides.
func LoadConfig() Config {
	return parallel.LoadConfig()
}

// Chunk partitions [0, n) into ranges of chunkSize.
func Chunk(n, chunkSize int) []Range {
	return parallel.Chunk(n, chunkSize)
}

// For executes body(i) for i in [0, n) on s.
func For(s Space, n int, body func(i int)) {
	parallel.For(s, n, body)
}

// Scan runs sc over [0, n) on s with the chunked two-pass algorithm and
// returns the total.
func Scan[T Real](s Space, n int, sc Scanner[T]) T {
	return parallel.Scan(s, n, sc)
}

// Reduce sums the per-chunk accumulators filled by body.
func Reduce[T Real](s Space, n int, body func(i int, acc *T)) T {
	return parallel.Reduce(s, n, body)
}
