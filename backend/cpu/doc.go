// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU execution space.
//
// # Overview
//
// This package implements a parallel.Space with:
//   - Pure Go implementation (no CGO)
//   - Chunked work distribution over at most NumWorkers goroutines
//   - Sequential fallback for small ranges (below MinChunkSize)
//   - Worker panics re-raised on the caller as *parallel.PanicError
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/parkit/backend/cpu"
//	    "github.com/born-ml/parkit/kernels"
//	)
//
//	func main() {
//	    space := cpu.New()
//	    total := kernels.Sum(space, len(xs), xs)
//	}
//
// For GPU acceleration, see the webgpu package.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Fence waits for every
// Launch in progress, from any goroutine, and must not be called from
// inside a launched body.
package cpu
