package webgpu

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/parkit/internal/kernels"
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

// newTestBackend offloads every typed kernel when a device is present.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewWithFallback(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16})
	b.SetMinDeviceElements(1)
	t.Cleanup(b.Release)
	t.Logf("backend: %s", b.Name())
	return b
}

func TestIsAvailable(t *testing.T) {
	t.Logf("WebGPU available: %v", IsAvailable())
}

func TestNew(t *testing.T) {
	b, err := New()
	if err != nil {
		assert.ErrorIs(t, err, ErrUnavailable)
		t.Skipf("WebGPU not available: %v", err)
	}
	defer b.Release()
	assert.True(t, b.OnDevice())
	assert.True(t, strings.HasPrefix(b.Name(), "WebGPU ("))
}

func TestNewWithFallback(t *testing.T) {
	b := newTestBackend(t)
	if !b.OnDevice() {
		assert.Equal(t, "WebGPU (host)", b.Name())
	}

	b.Release()
	assert.False(t, b.OnDevice(), "released backend keeps working on the host")
	a := []int32{1, 2, 3, 4}
	b.ExclusivePrefixSumInt32(len(a), a)
	assert.Equal(t, []int32{0, 1, 3, 6}, a)
}

func TestBackend_IsSpace(t *testing.T) {
	b := newTestBackend(t)
	var s parallel.Space = b

	a := []int64{1, 2, 3, 4}
	kernels.InclusivePrefixSum(s, len(a), a)
	assert.Equal(t, []int64{1, 3, 6, 10}, a)
	s.Fence()
}

func TestPrefixSumInt32(t *testing.T) {
	b := newTestBackend(t)
	r := rand.New(rand.NewPCG(11, 12))

	for _, n := range []int{1, 4, 255, 256, 257, 1000, 5000} {
		orig := make([]int32, n)
		for i := range orig {
			orig[i] = r.Int32N(200) - 100
		}

		want := slices.Clone(orig)
		kernels.ExclusivePrefixSum(parallel.Serial{}, n, want)
		got := slices.Clone(orig)
		b.ExclusivePrefixSumInt32(n, got)
		require.Equal(t, want, got, "exclusive n=%d", n)

		want = slices.Clone(orig)
		kernels.InclusivePrefixSum(parallel.Serial{}, n, want)
		got = slices.Clone(orig)
		b.InclusivePrefixSumInt32(n, got)
		require.Equal(t, want, got, "inclusive n=%d", n)
	}
}

func TestInclusivePrefixSumUint32(t *testing.T) {
	b := newTestBackend(t)
	n := 600
	a := make([]uint32, n)
	for i := range a {
		a[i] = 1
	}
	b.InclusivePrefixSumUint32(n, a)
	for i := range a {
		require.Equal(t, uint32(i+1), a[i])
	}

	c := []uint32{7, 0, 3}
	b.ExclusivePrefixSumUint32(len(c), c)
	assert.Equal(t, []uint32{0, 7, 7}, c)
}

func TestSum(t *testing.T) {
	b := newTestBackend(t)
	assert.Equal(t, int32(10), b.SumInt32(4, []int32{1, 2, 3, 4}))
	assert.Equal(t, uint32(0), b.SumUint32(0, nil))

	n := 3000
	f := make([]float32, n)
	u := make([]uint32, n)
	for i := range f {
		f[i] = 0.5
		u[i] = uint32(i)
	}
	assert.InDelta(t, float32(1500), b.SumFloat32(n, f), 1e-3)
	assert.Equal(t, uint32(n*(n-1)/2), b.SumUint32(n, u))
}

func TestDiffSumInt32(t *testing.T) {
	b := newTestBackend(t)
	assert.Equal(t, int32(9), b.DiffSumInt32(3, []int32{0, 2, 5}, []int32{2, 5, 9}))

	n := 700
	begin := make([]int32, n)
	end := make([]int32, n)
	for i := range begin {
		begin[i] = int32(2 * i)
		end[i] = int32(2*i + i%3)
	}
	assert.Equal(t, kernels.DiffSum(parallel.Serial{}, n, begin, end), b.DiffSumInt32(n, begin, end))
}

func TestApproximatelyEqualFloat32(t *testing.T) {
	b := newTestBackend(t)

	x := []float32{1, 2}
	y := []float32{1, 2.5}
	assert.True(t, b.ApproximatelyEqualFloat32(x, y, 0.5))
	assert.False(t, b.ApproximatelyEqualFloat32(x, y, 0.25))
	assert.False(t, b.ApproximatelyEqualFloat32(x, y[:1], 10))

	big := make([]float32, 2048)
	other := slices.Clone(big)
	assert.True(t, b.ApproximatelyEqualFloat32(big, other, 0))
	other[1500] = 1
	assert.False(t, b.ApproximatelyEqualFloat32(big, other, 0.5))
}

func TestShaderFor(t *testing.T) {
	key, code := shaderFor("blockScan", blockScanShader, numeric.Int32)
	assert.Equal(t, "blockScan_i32", key)
	assert.Contains(t, code, "array<i32>")
	assert.Contains(t, code, "i32(0)")
	assert.NotContains(t, code, "ELEM")

	key, code = shaderFor("mismatch", mismatchShader, numeric.Float32)
	assert.Equal(t, "mismatch_f32", key)
	assert.Contains(t, code, "eps: f32")

	assert.Panics(t, func() {
		shaderFor("globalSum", globalSumShader, numeric.Float64)
	})
}

func TestWorkgroups(t *testing.T) {
	assert.Equal(t, uint32(1), workgroups(1))
	assert.Equal(t, uint32(1), workgroups(256))
	assert.Equal(t, uint32(2), workgroups(257))
	assert.Equal(t, uint32(maxWorkgroups), workgroups(maxDeviceElements))
}
