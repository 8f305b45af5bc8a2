//go:build !windows

package webgpu

import "github.com/born-ml/parkit/internal/parallel"

// device is never present in non-Windows builds; every kernel runs on the
// host pool.
type device struct{}

func newDevice() (*device, error) { return nil, ErrUnavailable }

func probe() bool { return false }

func (*device) name() string { return "" }

func (*device) fence() {}

func (*device) release() {}

func scanOnDevice[T scanElement](*device, parallel.Space, []T, bool) error {
	return ErrUnavailable
}

func sumOnDevice[T sumElement](*device, []T) ([]T, error) {
	return nil, ErrUnavailable
}

func diffOnDevice(*device, []int32, []int32) ([]int32, error) {
	return nil, ErrUnavailable
}

func mismatchesOnDevice(*device, []float32, []float32, float32) ([]uint32, error) {
	return nil, ErrUnavailable
}
