// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package kernels_test

import (
	"fmt"

	"github.com/born-ml/parkit/backend/cpu"
	"github.com/born-ml/parkit/kernels"
	"github.com/born-ml/parkit/parallel"
)

func ExampleExclusivePrefixSum() {
	rowLengths := []int32{2, 0, 3, 1, 0}
	kernels.ExclusivePrefixSum(cpu.New(), len(rowLengths), rowLengths)
	fmt.Println(rowLengths)
	// Output: [0 2 2 5 6]
}

func ExampleInclusivePrefixSum() {
	a := []int{1, 2, 3, 4}
	kernels.InclusivePrefixSum(parallel.Serial{ChunkSize: 2}, len(a), a)
	fmt.Println(a)
	// Output: [1 3 6 10]
}

func ExampleDiffSum() {
	begin := []int64{0, 2, 5}
	end := []int64{2, 5, 9}
	fmt.Println(kernels.DiffSum(cpu.New(), len(begin), begin, end))
	// Output: 9
}

func ExampleApproximatelyEqual() {
	space := cpu.New()
	a := []float64{1.0, 2.0}
	b := []float64{1.0, 2.0 + 1e-9}
	fmt.Println(kernels.ApproximatelyEqual(space, a, b, 1e-6))
	fmt.Println(kernels.ApproximatelyEqual(space, a, b, 1e-12))
	// Output:
	// true
	// false
}
