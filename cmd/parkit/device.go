package main

import (
	"fmt"
	"math"

	"github.com/born-ml/parkit/backend/webgpu"
	"github.com/born-ml/parkit/kernels"
	"github.com/born-ml/parkit/parallel"
)

// The WebGPU space runs generic kernels on its host pool. Inputs that fit the
// device element types losslessly are sent to its typed kernels instead.

// prefixSum scans values in place and reports whether a typed WebGPU kernel
// was used.
func prefixSum(space parallel.Space, values []int64, inclusive bool) bool {
	if gpu, ok := space.(*webgpu.Backend); ok {
		if narrowed, ok := narrowInt32(values); ok {
			a := narrowed[0]
			if inclusive {
				gpu.InclusivePrefixSumInt32(len(a), a)
			} else {
				gpu.ExclusivePrefixSumInt32(len(a), a)
			}
			gpu.Fence()
			for i, v := range a {
				values[i] = int64(v)
			}
			return true
		}
	}

	if inclusive {
		kernels.InclusivePrefixSum(space, len(values), values)
	} else {
		kernels.ExclusivePrefixSum(space, len(values), values)
	}
	space.Fence()
	return false
}

// sumInts returns the sum of values and whether a typed WebGPU kernel was used.
func sumInts(space parallel.Space, values []int64) (int64, bool) {
	if gpu, ok := space.(*webgpu.Backend); ok {
		if narrowed, ok := narrowInt32(values); ok {
			return int64(gpu.SumInt32(len(narrowed[0]), narrowed[0])), true
		}
	}
	return kernels.Sum(space, len(values), values), false
}

// diffSum returns the sum of end[i] - begin[i] and whether a typed WebGPU
// kernel was used.
func diffSum(space parallel.Space, begin, end []int64) (int64, bool) {
	if gpu, ok := space.(*webgpu.Backend); ok {
		if narrowed, ok := narrowInt32(begin, end); ok {
			return int64(gpu.DiffSumInt32(len(begin), narrowed[0], narrowed[1])), true
		}
	}
	return kernels.DiffSum(space, len(begin), begin, end), false
}

// approximatelyEqual compares a and b within eps and reports whether a typed
// WebGPU kernel was used.
func approximatelyEqual(space parallel.Space, a, b []float64, eps float64) (bool, bool) {
	if gpu, ok := space.(*webgpu.Backend); ok && len(a) == len(b) {
		a32, okA := narrowFloat32(a)
		b32, okB := narrowFloat32(b)
		eps32, okEps := narrowFloat32([]float64{eps})
		if okA && okB && okEps {
			return gpu.ApproximatelyEqualFloat32(a32, b32, eps32[0]), true
		}
	}
	return kernels.ApproximatelyEqual(space, a, b, eps), false
}

// narrowInt32 converts lists to int32 if the sum of all magnitudes fits in
// an int32, so no partial sum or difference of the converted values can
// overflow.
func narrowInt32(lists ...[]int64) ([][]int32, bool) {
	var total int64
	for _, list := range lists {
		for _, v := range list {
			if v < -math.MaxInt32 || v > math.MaxInt32 {
				return nil, false
			}
			total += max(v, -v)
			if total > math.MaxInt32 {
				return nil, false
			}
		}
	}

	out := make([][]int32, len(lists))
	for i, list := range lists {
		out[i] = make([]int32, len(list))
		for j, v := range list {
			out[i][j] = int32(v)
		}
	}
	return out, true
}

// narrowFloat32 converts values to float32 if every value is exactly
// representable.
func narrowFloat32(values []float64) ([]float32, bool) {
	out := make([]float32, len(values))
	for i, v := range values {
		f := float32(v)
		if float64(f) != v {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// maxDeviceBench is the largest n for which the typed bench inputs keep
// every int32 prefix in range and every float32 partial sum exact.
const maxDeviceBench = 1 << 24

// deviceBench times the typed WebGPU kernels against the generic kernels on
// the calling goroutine. n must not exceed maxDeviceBench.
func deviceBench(gpu *webgpu.Backend, n, repeat int, verify bool) ([]benchResult, error) {
	serial := parallel.Serial{}

	src := make([]int32, n)
	begin := make([]int32, n)
	end := make([]int32, n)
	values := make([]float32, n)
	for i := range src {
		src[i] = int32(i % 7)
		begin[i] = int32(i)
		end[i] = int32(i + i%5)
		values[i] = 0.5
	}

	work := make([]int32, n)
	want := make([]int32, n)
	var results []benchResult

	scans := []struct {
		name      string
		inclusive bool
	}{
		{"exclusive_scan_i32", false},
		{"inclusive_scan_i32", true},
	}
	for _, sc := range scans {
		onDevice := func(parallel.Space) {
			copy(work, src)
			if sc.inclusive {
				gpu.InclusivePrefixSumInt32(n, work)
			} else {
				gpu.ExclusivePrefixSumInt32(n, work)
			}
		}
		onHost := func(s parallel.Space) {
			copy(work, src)
			if sc.inclusive {
				kernels.InclusivePrefixSum(s, n, work)
			} else {
				kernels.ExclusivePrefixSum(s, n, work)
			}
		}
		r := benchResult{
			name:       sc.name,
			parallel:   best(gpu, repeat, onDevice),
			sequential: best(serial, repeat, onHost),
			bytes:      8 * n,
			verified:   "-",
		}
		if verify {
			onHost(serial)
			copy(want, work)
			onDevice(gpu)
			gpu.Fence()
			for i := range want {
				if want[i] != work[i] {
					return nil, fmt.Errorf("%s: index %d: got %d, want %d", sc.name, i, work[i], want[i])
				}
			}
			r.verified = "ok"
		}
		results = append(results, r)
	}

	var total float32
	r := benchResult{
		name:       "sum_f32",
		parallel:   best(gpu, repeat, func(parallel.Space) { total = gpu.SumFloat32(n, values) }),
		sequential: best(serial, repeat, func(s parallel.Space) { kernels.Sum(s, n, values) }),
		bytes:      4 * n,
		verified:   "-",
	}
	if verify {
		if ref := float64(n) / 2; math.Abs(float64(total)-ref) > 1e-3*ref {
			return nil, fmt.Errorf("sum_f32: got %g, want %g", total, ref)
		}
		r.verified = "ok"
	}
	results = append(results, r)

	var diff int32
	r = benchResult{
		name:       "diff_sum_i32",
		parallel:   best(gpu, repeat, func(parallel.Space) { diff = gpu.DiffSumInt32(n, begin, end) }),
		sequential: best(serial, repeat, func(s parallel.Space) { kernels.DiffSum(s, n, begin, end) }),
		bytes:      8 * n,
		verified:   "-",
	}
	if verify {
		if ref := kernels.DiffSum(serial, n, begin, end); ref != diff {
			return nil, fmt.Errorf("diff_sum_i32: got %d, want %d", diff, ref)
		}
		r.verified = "ok"
	}
	results = append(results, r)

	other := make([]float32, n)
	copy(other, values)
	var equal bool
	r = benchResult{
		name:       "approx_equal_f32",
		parallel:   best(gpu, repeat, func(parallel.Space) { equal = gpu.ApproximatelyEqualFloat32(values, other, 0) }),
		sequential: best(serial, repeat, func(s parallel.Space) { kernels.ApproximatelyEqual(s, values, other, 0) }),
		bytes:      8 * n,
		verified:   "-",
	}
	if verify {
		if !equal {
			return nil, fmt.Errorf("approx_equal_f32: identical arrays compared unequal")
		}
		r.verified = "ok"
	}
	results = append(results, r)

	return results, nil
}
