// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/parkit/internal/backend/cpu"
	"github.com/born-ml/parkit/parallel"
)

// Backend represents the CPU execution space.
//
// Chunks of an index range run on a bounded set of goroutines; a range
// that fits in one chunk runs on the calling goroutine.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements parallel.Space.
var _ parallel.Space = (*Backend)(nil)

// New creates a CPU backend configured from the environment
// (PARKIT_NUM_WORKERS, PARKIT_MIN_CHUNK, PARKIT_SEQUENTIAL).
//
// Example:
//
//	import (
//	    "github.com/born-ml/parkit/backend/cpu"
//	    "github.com/born-ml/parkit/kernels"
//	)
//
//	func main() {
//	    space := cpu.New()
//	    offsets := []int64{3, 0, 2, 5}
//	    kernels.ExclusivePrefixSum(space, len(offsets), offsets)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit configuration.
func NewWithConfig(cfg parallel.Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
