// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU execution space.
//
// WebGPU is a cross-platform graphics and compute API. Device kernels are
// available in Windows builds; elsewhere, and whenever no adapter is found,
// the backend runs on its host CPU pool with identical results.
//
// Example:
//
//	import (
//	    "github.com/born-ml/parkit/backend/webgpu"
//	    "github.com/born-ml/parkit/kernels"
//	    "github.com/born-ml/parkit/parallel"
//	)
//
//	func main() {
//	    gpu := webgpu.NewWithFallback(parallel.LoadConfig())
//	    defer gpu.Release()
//
//	    gpu.ExclusivePrefixSumInt32(len(rowPtr), rowPtr)
//	    nnz := gpu.DiffSumInt32(n, rowBegin, rowEnd)
//
//	    // Element types without a device kernel run on the host pool.
//	    total := kernels.Sum(gpu, len(weights), weights)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/parkit/internal/backend/webgpu"
	"github.com/born-ml/parkit/parallel"
)

// Backend represents the WebGPU execution space.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements parallel.Space.
var _ parallel.Space = (*Backend)(nil)

// ErrUnavailable is returned by New when no device can be opened.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources. Returns an error wrapping
// ErrUnavailable if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// NewWithFallback creates a WebGPU backend that falls back to a host pool
// configured by cfg when no device is available.
func NewWithFallback(cfg parallel.Config) *Backend {
	return internalwebgpu.NewWithFallback(cfg)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	var space parallel.Space = cpu.New()
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    space = gpu
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
