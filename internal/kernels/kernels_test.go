package kernels

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/parkit/internal/backend/cpu"
	"github.com/born-ml/parkit/internal/parallel"
)

// testSpaces returns spaces that cover the single-chunk path, the
// deterministic multi-chunk path and real concurrent workers.
func testSpaces() map[string]parallel.Space {
	return map[string]parallel.Space{
		"serial":   parallel.Serial{},
		"chunk_1":  parallel.Serial{ChunkSize: 1},
		"chunk_3":  parallel.Serial{ChunkSize: 3},
		"cpu":      cpu.NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}),
		"cpu_many": cpu.NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 32, MinChunkSize: 1}),
	}
}

func randomInts(r *rand.Rand, n int) []int64 {
	a := make([]int64, n)
	for i := range a {
		a[i] = r.Int64N(2001) - 1000
	}
	return a
}

func TestExclusivePrefixSum(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			a := []int32{1, 2, 3, 4}
			ExclusivePrefixSum(s, len(a), a)
			if diff := cmp.Diff([]int32{0, 1, 3, 6}, a); diff != "" {
				t.Errorf("exclusive scan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInclusivePrefixSum(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			a := []int32{1, 2, 3, 4}
			InclusivePrefixSum(s, len(a), a)
			if diff := cmp.Diff([]int32{1, 3, 6, 10}, a); diff != "" {
				t.Errorf("inclusive scan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrefixSum_Empty(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			var a []uint64
			ExclusivePrefixSum(s, 0, a)
			InclusivePrefixSum(s, 0, a)
			assert.Empty(t, a)

			b := []int{5, 6}
			ExclusivePrefixSum(s, 0, b)
			assert.Equal(t, []int{5, 6}, b, "n=0 must not touch the array")
		})
	}
}

func TestPrefixSum_OnlyFirstN(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			a := []int{1, 1, 1, 1, 9, 9}
			ExclusivePrefixSum(s, 4, a)
			assert.Equal(t, []int{0, 1, 2, 3, 9, 9}, a)
		})
	}
}

func TestPrefixSum_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{1, 2, 7, 64, 1000} {
				orig := randomInts(r, n)
				excl := slices.Clone(orig)
				incl := slices.Clone(orig)

				ExclusivePrefixSum(s, n, excl)
				InclusivePrefixSum(s, n, incl)

				require.Zero(t, excl[0], "exclusive scan starts at the identity")
				for i := range orig {
					require.Equal(t, orig[i], incl[i]-excl[i], "n=%d i=%d", n, i)
				}
				require.Equal(t, Sum(s, n, orig), incl[n-1])
			}
		})
	}
}

func TestPrefixSum_Unsigned(t *testing.T) {
	s := parallel.Serial{ChunkSize: 2}
	a := []uint8{3, 0, 250, 2, 1}
	ExclusivePrefixSum(s, len(a), a)
	assert.Equal(t, []uint8{0, 3, 3, 253, 255}, a)
}

func TestPrefixSum_NamedType(t *testing.T) {
	type offset int64
	a := []offset{2, 3, 4}
	InclusivePrefixSum(parallel.Serial{ChunkSize: 1}, len(a), a)
	assert.Equal(t, []offset{2, 5, 9}, a)
}

func TestInclusivePrefixSum_Float(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			orig := make([]float64, 513)
			for i := range orig {
				orig[i] = r.Float64()
			}
			want := floats.CumSum(make([]float64, len(orig)), orig)

			got := slices.Clone(orig)
			InclusivePrefixSum(s, len(got), got)
			assert.True(t, floats.EqualApprox(want, got, 1e-9))
		})
	}
}

func TestSum(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 10, Sum(s, 4, []int{1, 2, 3, 4}))
			assert.Equal(t, 0, Sum(s, 0, []int{1, 2, 3, 4}))
			assert.Equal(t, 0.0, Sum[float64](s, 0, nil))

			f := []float64{0.5, 0.25, 0.125, 0.125}
			assert.InDelta(t, floats.Sum(f), Sum(s, len(f), f), 1e-15)
		})
	}
}

func TestDiffSum(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			begin := []int32{0, 2, 5}
			end := []int32{2, 5, 9}
			assert.Equal(t, int32(9), DiffSum(s, 3, begin, end))
			assert.Equal(t, int32(0), DiffSum(s, 0, begin, end))
		})
	}
}

func TestDiffSum_NegativeTerms(t *testing.T) {
	s := parallel.Serial{ChunkSize: 1}
	begin := []int{5, 0}
	end := []int{1, 2}
	assert.Equal(t, -2, DiffSum(s, 2, begin, end))
}

func TestDiffSum_MatchesSumOfDifferences(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			n := 300
			begin := randomInts(r, n)
			end := randomInts(r, n)
			diff := make([]int64, n)
			for i := range diff {
				diff[i] = end[i] - begin[i]
			}
			assert.Equal(t, Sum(s, n, diff), DiffSum(s, n, begin, end))
		})
	}
}

// DiffSum does not validate lengths: a short end slice is an indexing fault.
func TestDiffSum_ShortSlicePanics(t *testing.T) {
	assert.Panics(t, func() {
		DiffSum(parallel.Serial{}, 3, []int{0, 1, 2}, []int{1, 2})
	})
}

func TestDiffSum_WorkerPanicPropagates(t *testing.T) {
	s := cpu.NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	begin := make([]int, 16)
	end := make([]int, 8)

	defer func() {
		v := recover()
		require.NotNil(t, v)
		pe, ok := v.(*parallel.PanicError)
		require.True(t, ok, "expected *parallel.PanicError, got %T", v)
		assert.Contains(t, pe.Error(), "index out of range")
	}()
	DiffSum(s, 16, begin, end)
}

func TestApproximatelyEqual(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			a := []float64{1.0, 2.0}
			b := []float64{1.0, 2.0 + 1e-9}
			assert.True(t, ApproximatelyEqual(s, a, b, 1e-6))
			assert.False(t, ApproximatelyEqual(s, a, b, 1e-12))
		})
	}
}

func TestApproximatelyEqual_Reflexive(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			a := make([]float32, 100)
			for i := range a {
				a[i] = r.Float32() * 1e6
			}
			assert.True(t, ApproximatelyEqual(s, a, slices.Clone(a), 0))
			assert.True(t, ApproximatelyEqual[float32](s, nil, nil, 0))
		})
	}
}

func TestApproximatelyEqual_LengthMismatch(t *testing.T) {
	s := parallel.Serial{}
	assert.False(t, ApproximatelyEqual(s, []int{1, 2}, []int{1, 2, 3}, 100))
	assert.False(t, ApproximatelyEqual(s, []int{}, []int{0}, 100))
	assert.False(t, ApproximatelyEqual(s, []float64{1}, nil, math.Inf(1)))
}

func TestApproximatelyEqual_BoundaryIsInclusive(t *testing.T) {
	s := parallel.Serial{ChunkSize: 1}
	assert.True(t, ApproximatelyEqual(s, []int{10, 20}, []int{12, 18}, 2))
	assert.False(t, ApproximatelyEqual(s, []int{10, 20}, []int{13, 18}, 2))
	assert.True(t, ApproximatelyEqual(s, []float64{0.5}, []float64{0.75}, 0.25))
}

func TestApproximatelyEqual_UnsignedDoesNotWrap(t *testing.T) {
	s := parallel.Serial{}
	assert.True(t, ApproximatelyEqual(s, []uint32{1}, []uint32{3}, 2))
	assert.False(t, ApproximatelyEqual(s, []uint32{1}, []uint32{4}, 2))
}

func TestApproximatelyEqual_SignedDoesNotWrap(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ApproximatelyEqual(s, []int8{100}, []int8{-100}, 5))
			assert.False(t, ApproximatelyEqual(s, []int8{-100}, []int8{100}, math.MaxInt8))
			assert.False(t, ApproximatelyEqual(s, []int32{math.MaxInt32}, []int32{-2}, 0))
			assert.False(t, ApproximatelyEqual(s, []int64{math.MinInt64, 0}, []int64{math.MaxInt64, 0}, math.MaxInt64))
			assert.False(t, ApproximatelyEqual(s, []int8{math.MaxInt8, 0}, []int8{0, math.MinInt8}, math.MaxInt8))
			assert.True(t, ApproximatelyEqual(s, []int8{math.MaxInt8}, []int8{0}, math.MaxInt8))
		})
	}
}

func TestApproximatelyEqual_NegativeTolerance(t *testing.T) {
	s := parallel.Serial{}
	assert.False(t, ApproximatelyEqual(s, []int{1}, []int{1}, -1))
	assert.False(t, ApproximatelyEqual(s, []float64{0}, []float64{0}, -1e-9))
	assert.True(t, ApproximatelyEqual[int](s, nil, nil, -1))
}

// equalOracle evaluates |a[i] - b[i]| <= eps in float64, which is exact for
// every int8 and int32 difference.
func equalOracle[T int8 | int32](a, b []T, eps T) bool {
	for i := range a {
		if math.Abs(float64(a[i])-float64(b[i])) > float64(eps) {
			return false
		}
	}
	return true
}

func TestApproximatelyEqual_SignedExtremes(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))
	int8s := []int8{math.MinInt8, math.MinInt8 + 1, -1, 0, 1, math.MaxInt8 - 1, math.MaxInt8}
	int32s := []int32{math.MinInt32, math.MinInt32 + 1, -1, 0, 1, math.MaxInt32 - 1, math.MaxInt32}

	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			for range 200 {
				n := 1 + r.IntN(8)
				a8, b8 := make([]int8, n), make([]int8, n)
				a32, b32 := make([]int32, n), make([]int32, n)
				for i := range n {
					a8[i], b8[i] = int8s[r.IntN(len(int8s))], int8s[r.IntN(len(int8s))]
					a32[i], b32[i] = int32s[r.IntN(len(int32s))], int32s[r.IntN(len(int32s))]
				}
				eps8 := int8s[r.IntN(len(int8s))]
				eps32 := int32s[r.IntN(len(int32s))]

				require.Equal(t, equalOracle(a8, b8, eps8), ApproximatelyEqual(s, a8, b8, eps8),
					"a=%v b=%v eps=%d", a8, b8, eps8)
				require.Equal(t, equalOracle(a32, b32, eps32), ApproximatelyEqual(s, a32, b32, eps32),
					"a=%v b=%v eps=%d", a32, b32, eps32)
			}
		})
	}
}

func TestApproximatelyEqualComplex(t *testing.T) {
	s := parallel.Serial{ChunkSize: 1}
	a := []complex128{complex(1, 1), complex(0, 0)}
	b := []complex128{complex(1, 1), complex(3, 4)}
	assert.True(t, ApproximatelyEqualComplex(s, a, b, 5))
	assert.False(t, ApproximatelyEqualComplex(s, a, b, 4.999))

	c := []complex64{complex(1, 0)}
	assert.True(t, ApproximatelyEqualComplex(s, c, c, 0))
}

func TestApproximatelyEqualFloat16(t *testing.T) {
	s := parallel.Serial{}
	a := []float16.Float16{float16.Fromfloat32(1), float16.Fromfloat32(2)}
	b := []float16.Float16{float16.Fromfloat32(1), float16.Fromfloat32(2.5)}
	assert.True(t, ApproximatelyEqualFloat16(s, a, b, 0.5))
	assert.False(t, ApproximatelyEqualFloat16(s, a, b, 0.25))
}

func TestCountMismatches(t *testing.T) {
	for name, s := range testSpaces() {
		t.Run(name, func(t *testing.T) {
			a := make([]int, 50)
			b := make([]int, 50)
			for i := 0; i < 50; i += 5 {
				b[i] = 3
			}
			got := CountMismatches(s, a, b, 2, func(x, y int) int {
				if x > y {
					return x - y
				}
				return y - x
			})
			assert.Equal(t, 10, got)
		})
	}
}

func BenchmarkExclusivePrefixSum(b *testing.B) {
	n := 1 << 20
	src := make([]int64, n)
	for i := range src {
		src[i] = int64(i % 7)
	}
	a := make([]int64, n)

	b.Run("parallel", func(b *testing.B) {
		s := cpu.New()
		for i := 0; i < b.N; i++ {
			copy(a, src)
			ExclusivePrefixSum(s, n, a)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		s := parallel.Serial{}
		for i := 0; i < b.N; i++ {
			copy(a, src)
			ExclusivePrefixSum(s, n, a)
		}
	})
}

func BenchmarkSum(b *testing.B) {
	n := 1 << 20
	a := make([]float64, n)
	for i := range a {
		a[i] = float64(i)
	}

	b.Run("parallel", func(b *testing.B) {
		s := cpu.New()
		for i := 0; i < b.N; i++ {
			Sum(s, n, a)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		s := parallel.Serial{}
		for i := 0; i < b.N; i++ {
			Sum(s, n, a)
		}
	})
}
