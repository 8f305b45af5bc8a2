// Package webgpu implements the WebGPU execution space.
//
// Generic work launched through the parallel.Space interface runs on a host
// CPU pool. The typed kernels (int32/uint32 scans, int32/uint32/float32
// sums, int32 difference sums and float32 comparison) run as WGSL compute
// shaders when a device is present and the array is large enough, and on the
// host pool otherwise. Device support uses github.com/go-webgpu/webgpu and
// is built on Windows only.
package webgpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/parkit/internal/backend/cpu"
	"github.com/born-ml/parkit/internal/envconfig"
	"github.com/born-ml/parkit/internal/kernels"
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

// ErrUnavailable is returned when no WebGPU device can be opened.
var ErrUnavailable = errors.New("webgpu: device not available")

const (
	workgroupSize = 256
	// maxWorkgroups is the per-dimension dispatch limit guaranteed by WebGPU.
	maxWorkgroups = 65535
	// maxDeviceElements is the largest array a single dispatch can cover.
	maxDeviceElements = maxWorkgroups * workgroupSize
)

// scanElement is the set of element types with exact device scans.
type scanElement interface {
	int32 | uint32
}

// sumElement is the set of element types with device sum reductions.
type sumElement interface {
	int32 | uint32 | float32
}

// Backend is the WebGPU execution space.
type Backend struct {
	host *cpu.CPUBackend
	dev  *device

	minDeviceElements int
}

// New creates a WebGPU backend. Returns ErrUnavailable (wrapped) if the
// native library, an adapter or a device cannot be obtained.
func New() (*Backend, error) {
	return newBackend(parallel.LoadConfig(), true)
}

// NewWithFallback creates a WebGPU backend that runs every kernel on a host
// pool configured by cfg when no device is available.
func NewWithFallback(cfg parallel.Config) *Backend {
	b, _ := newBackend(cfg, false)
	return b
}

func newBackend(cfg parallel.Config, strict bool) (*Backend, error) {
	b := &Backend{
		host:              cpu.NewWithConfig(cfg),
		minDeviceElements: max(int(envconfig.GPUMinElements()), 1),
	}

	dev, err := newDevice()
	if err != nil {
		if strict {
			return nil, fmt.Errorf("webgpu: failed to open device: %w", err)
		}
		slog.Debug("webgpu device unavailable, using host pool", "error", err)
		return b, nil
	}

	b.dev = dev
	slog.Debug("webgpu device ready", "adapter", dev.name(), "min_elements", b.minDeviceElements)
	return b, nil
}

// IsAvailable checks if a WebGPU device can be opened on this system.
func IsAvailable() bool {
	return probe()
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.dev == nil {
		return "WebGPU (host)"
	}
	return fmt.Sprintf("WebGPU (%s)", b.dev.name())
}

// OnDevice reports whether a GPU device backs this space.
func (b *Backend) OnDevice() bool {
	return b.dev != nil
}

// SetMinDeviceElements sets the array length below which typed kernels stay
// on the host pool.
func (b *Backend) SetMinDeviceElements(n int) {
	b.minDeviceElements = max(n, 1)
}

// Split partitions [0, n) for the host pool.
func (b *Backend) Split(n int) []parallel.Range {
	return b.host.Split(n)
}

// Launch runs generic work on the host pool.
func (b *Backend) Launch(ranges []parallel.Range, body func(chunk int, r parallel.Range)) {
	b.host.Launch(ranges, body)
}

// Fence waits for submitted device commands and for host work.
func (b *Backend) Fence() {
	if b.dev != nil {
		b.dev.fence()
	}
	b.host.Fence()
}

// Release releases all WebGPU resources. The backend keeps working on the
// host pool afterwards.
func (b *Backend) Release() {
	if b.dev != nil {
		b.dev.release()
		b.dev = nil
	}
}

func (b *Backend) offload(n int) bool {
	return b.dev != nil && n >= b.minDeviceElements && n <= maxDeviceElements
}

// ExclusivePrefixSumInt32 is kernels.ExclusivePrefixSum for int32 offsets.
func (b *Backend) ExclusivePrefixSumInt32(n int, a []int32) {
	prefixSum(b, n, a, true)
}

// ExclusivePrefixSumUint32 is kernels.ExclusivePrefixSum for uint32 offsets.
func (b *Backend) ExclusivePrefixSumUint32(n int, a []uint32) {
	prefixSum(b, n, a, true)
}

// InclusivePrefixSumInt32 is kernels.InclusivePrefixSum for int32 offsets.
func (b *Backend) InclusivePrefixSumInt32(n int, a []int32) {
	prefixSum(b, n, a, false)
}

// InclusivePrefixSumUint32 is kernels.InclusivePrefixSum for uint32 offsets.
func (b *Backend) InclusivePrefixSumUint32(n int, a []uint32) {
	prefixSum(b, n, a, false)
}

// SumInt32 is kernels.Sum for int32.
func (b *Backend) SumInt32(n int, a []int32) int32 {
	return sum(b, n, a)
}

// SumUint32 is kernels.Sum for uint32.
func (b *Backend) SumUint32(n int, a []uint32) uint32 {
	return sum(b, n, a)
}

// SumFloat32 is kernels.Sum for float32.
func (b *Backend) SumFloat32(n int, a []float32) float32 {
	return sum(b, n, a)
}

// DiffSumInt32 is kernels.DiffSum for int32 offsets.
func (b *Backend) DiffSumInt32(n int, begin, end []int32) int32 {
	if !b.offload(n) {
		return kernels.DiffSum(b.host, n, begin, end)
	}
	partials, err := diffOnDevice(b.dev, begin[:n], end[:n])
	if err != nil {
		panic("webgpu: DiffSumInt32: " + err.Error())
	}
	return kernels.Sum(b.host, len(partials), partials)
}

// ApproximatelyEqualFloat32 is kernels.ApproximatelyEqual for float32.
func (b *Backend) ApproximatelyEqualFloat32(x, y []float32, eps float32) bool {
	if len(x) != len(y) {
		return false
	}
	if !b.offload(len(x)) {
		return kernels.ApproximatelyEqual(b.host, x, y, eps)
	}
	partials, err := mismatchesOnDevice(b.dev, x, y, eps)
	if err != nil {
		panic("webgpu: ApproximatelyEqualFloat32: " + err.Error())
	}
	b.Fence()
	return kernels.Sum(b.host, len(partials), partials) == 0
}

func prefixSum[T scanElement](b *Backend, n int, a []T, exclusive bool) {
	if !b.offload(n) {
		if exclusive {
			kernels.ExclusivePrefixSum(b.host, n, a)
		} else {
			kernels.InclusivePrefixSum(b.host, n, a)
		}
		return
	}
	if err := scanOnDevice(b.dev, b.host, a[:n], exclusive); err != nil {
		panic(fmt.Sprintf("webgpu: %s prefix sum: %v", numeric.Of[T](), err))
	}
}

func sum[T sumElement](b *Backend, n int, a []T) T {
	if !b.offload(n) {
		return kernels.Sum(b.host, n, a)
	}
	partials, err := sumOnDevice(b.dev, a[:n])
	if err != nil {
		panic(fmt.Sprintf("webgpu: %s sum: %v", numeric.Of[T](), err))
	}
	return kernels.Sum(b.host, len(partials), partials)
}
