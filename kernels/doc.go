// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernels provides the parallel array primitives used to build
// sparse matrix and graph offset arrays.
//
// # Overview
//
//   - ExclusivePrefixSum / InclusivePrefixSum: in place scans, exact for
//     integer element types (the result can serve as CSR row pointers)
//   - Sum: associative sum reduction
//   - DiffSum: sum of end[i] - begin[i] over begin/end offset arrays
//   - ApproximatelyEqual: elementwise comparison under an absolute tolerance
//
// Every function takes the execution space to run on and borrows the
// arrays for the duration of the call only.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/parkit/backend/cpu"
//	    "github.com/born-ml/parkit/kernels"
//	)
//
//	func rowPointers(rowLengths []int32) []int32 {
//	    space := cpu.New()
//	    ptr := append(rowLengths, 0)
//	    kernels.ExclusivePrefixSum(space, len(ptr), ptr)
//	    return ptr // ptr[len(ptr)-1] is the number of non-zeros
//	}
//
// # Numerics
//
// Floating point reductions combine chunk results in an unspecified order,
// so results may differ in the last bits between spaces and worker counts.
// Integer results are exact.
//
// # Thread Safety
//
// Concurrent calls on different arrays are safe. Concurrent calls that
// write the same array are not synchronised.
package kernels
