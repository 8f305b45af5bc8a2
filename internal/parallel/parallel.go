// Package parallel provides the execution space abstraction and the generic
// for, scan and reduce primitives built on top of it.
package parallel

import (
	"github.com/born-ml/parkit/internal/envconfig"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := int(envconfig.NumWorkers())
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// LoadConfig returns DefaultConfig with PARKIT_* environment overrides applied.
func LoadConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkSize = max(int(envconfig.MinChunkSize()), 1)
	if envconfig.Sequential() {
		cfg.Enabled = false
	}
	return cfg
}

// Split partitions [0, n) into contiguous ranges, one per worker.
// Falls back to a single range if parallelism is disabled or n is too small.
func (cfg Config) Split(n int) []Range {
	if n <= 0 {
		return nil
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize {
		return []Range{{Lo: 0, Hi: n}}
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
	return Chunk(n, chunkSize)
}

// Chunk partitions [0, n) into ranges of size chunkSize; the last range may
// be shorter.
func Chunk(n, chunkSize int) []Range {
	if n <= 0 {
		return nil
	}
	chunkSize = max(chunkSize, 1)
	ranges := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		ranges = append(ranges, Range{Lo: start, Hi: min(start+chunkSize, n)})
	}
	return ranges
}

// Range is the half-open index interval [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Space is an execution space: a scheduler that runs chunks of an index
// range, possibly concurrently.
//
// Split must return non-empty, contiguous ranges in ascending order that
// exactly cover [0, n). Launch runs body once per range and returns only
// after every call has finished; a panic in any body is re-raised on the
// calling goroutine. Fence blocks until all work launched on the space,
// from any goroutine, has completed.
type Space interface {
	Name() string
	Split(n int) []Range
	Launch(ranges []Range, body func(chunk int, r Range))
	Fence()
}

// For executes body(i) for i in [0, n). No ordering between indices is
// guaranteed and calls may run concurrently.
func For(s Space, n int, body func(i int)) {
	if n <= 0 {
		return
	}

	ranges := s.Split(n)
	checkRanges(s, ranges, n)
	s.Launch(ranges, func(_ int, r Range) {
		for i := r.Lo; i < r.Hi; i++ {
			body(i)
		}
	})
}
