//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/parkit/internal/kernels"
	"github.com/born-ml/parkit/internal/numeric"
	"github.com/born-ml/parkit/internal/parallel"
)

const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	uploadUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
)

// device owns the WebGPU objects of one adapter.
type device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     *wgpu.AdapterInfoGo

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	pool *BufferPool
}

// binding is one storage or uniform buffer of a bind group.
type binding struct {
	buffer *wgpu.Buffer
	size   uint64
}

func newDevice() (d *device, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %v", ErrUnavailable, err)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrUnavailable, err)
	}

	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrUnavailable, err)
	}

	// Adapter info only names the device; a missing one is not fatal.
	info, err := adapter.GetInfo()
	if err != nil {
		info = &wgpu.AdapterInfoGo{}
	}

	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no queue", ErrUnavailable)
	}

	return &device{
		instance:  instance,
		adapter:   adapter,
		device:    dev,
		queue:     queue,
		info:      info,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		pool:      NewBufferPool(dev),
	}, nil
}

func probe() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

func (d *device) name() string {
	if d.info != nil && d.info.Device != "" {
		return d.info.Device
	}
	return "unknown adapter"
}

// fence blocks until every command submitted to the queue has completed.
// Mapping a buffer copied after all prior submissions waits for them.
func (d *device) fence() {
	marker := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: uploadUsage,
		Size:  4,
	})
	defer marker.Release()
	if _, err := d.readBuffer(marker, 4); err != nil {
		panic("webgpu: fence: " + err.Error())
	}
}

func (d *device) release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pool.Clear()
	for _, p := range d.pipelines {
		p.Release()
	}
	d.pipelines = nil
	for _, s := range d.shaders {
		s.Release()
	}
	d.shaders = nil

	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached by name.
func (d *device) compileShader(name, code string) *wgpu.ShaderModule {
	d.mu.RLock()
	if shader, exists := d.shaders[name]; exists {
		d.mu.RUnlock()
		return shader
	}
	d.mu.RUnlock()

	shader := d.device.CreateShaderModuleWGSL(code)

	d.mu.Lock()
	d.shaders[name] = shader
	d.mu.Unlock()
	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (d *device) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	d.mu.RLock()
	if pipeline, exists := d.pipelines[name]; exists {
		d.mu.RUnlock()
		return pipeline
	}
	d.mu.RUnlock()

	// Auto layout (nil layout)
	pipeline := d.device.CreateComputePipelineSimple(nil, shader, "main")

	d.mu.Lock()
	d.pipelines[name] = pipeline
	d.mu.Unlock()
	return pipeline
}

// createBuffer creates a GPU buffer initialised with data.
func (d *device) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a 16-byte uniform buffer holding words.
func (d *device) createUniformBuffer(words ...uint32) *wgpu.Buffer {
	params := make([]byte, 16)
	for i, w := range words {
		binary.LittleEndian.PutUint32(params[i*4:], w)
	}

	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             16,
		MappedAtCreation: wgpu.True,
	})
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(buffer.GetMappedRange(0, 16)), 16), params)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (d *device) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	d.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(d.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	result := make([]byte, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(result, unsafe.Slice((*byte)(mappedPtr), size))
	staging.Unmap()

	return result, nil
}

// dispatch runs one compute pass of the named shader over groups workgroups.
func (d *device) dispatch(key, code string, groups uint32, bindings ...binding) {
	pipeline := d.getOrCreatePipeline(key, d.compileShader(key, code))

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, b := range bindings {
		entries[i] = wgpu.BufferBindingEntry(uint32(i), b.buffer, 0, b.size) //nolint:gosec // G115: few bindings
	}
	bindGroup := d.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(groups, 1, 1)
	computePass.End()

	d.queue.Submit(encoder.Finish(nil))
}

// scanOnDevice scans a in place: block scans on the device, block offsets
// on the host, then one pass adding the offsets.
func scanOnDevice[T scanElement](d *device, host parallel.Space, a []T, exclusive bool) error {
	dt := numeric.Of[T]()
	n := len(a)
	size := uint64(n * 4)
	groups := workgroups(n)
	blockBytes := uint64(groups) * 4

	input := d.createBuffer(bytesOf(a), uploadUsage)
	defer input.Release()

	result := d.pool.Acquire(size, storageUsage)
	defer d.pool.Release(result, size, storageUsage)

	blocks := d.pool.Acquire(blockBytes, storageUsage)
	defer d.pool.Release(blocks, blockBytes, storageUsage)

	params := d.createUniformBuffer(uint32(n)) //nolint:gosec // G115: n <= maxDeviceElements
	defer params.Release()

	key, code := shaderFor("blockScan", blockScanShader, dt)
	d.dispatch(key, code, groups,
		binding{input, size}, binding{result, size}, binding{blocks, blockBytes}, binding{params, 16})

	offsets, err := readSlice[T](d, blocks, int(groups))
	if err != nil {
		return err
	}
	kernels.ExclusivePrefixSum(host, len(offsets), offsets)

	offsetBuffer := d.createBuffer(bytesOf(offsets), uploadUsage)
	defer offsetBuffer.Release()

	var flag uint32
	if exclusive {
		flag = 1
	}
	addParams := d.createUniformBuffer(uint32(n), flag) //nolint:gosec // G115: n <= maxDeviceElements
	defer addParams.Release()

	key, code = shaderFor("addOffsets", addOffsetsShader, dt)
	d.dispatch(key, code, groups,
		binding{input, size}, binding{result, size}, binding{offsetBuffer, blockBytes}, binding{addParams, 16})

	out, err := d.readBuffer(result, size)
	if err != nil {
		return err
	}
	copy(bytesOf(a), out)
	return nil
}

// sumOnDevice returns one partial sum per workgroup.
func sumOnDevice[T sumElement](d *device, a []T) ([]T, error) {
	n := len(a)
	size := uint64(n * 4)
	groups := workgroups(n)

	input := d.createBuffer(bytesOf(a), uploadUsage)
	defer input.Release()

	partials := d.pool.Acquire(uint64(groups)*4, storageUsage)
	defer d.pool.Release(partials, uint64(groups)*4, storageUsage)

	params := d.createUniformBuffer(uint32(n)) //nolint:gosec // G115: n <= maxDeviceElements
	defer params.Release()

	key, code := shaderFor("globalSum", globalSumShader, numeric.Of[T]())
	d.dispatch(key, code, groups,
		binding{input, size}, binding{partials, uint64(groups) * 4}, binding{params, 16})

	return readSlice[T](d, partials, int(groups))
}

// diffOnDevice returns one partial of end[i] - begin[i] per workgroup.
func diffOnDevice(d *device, begin, end []int32) ([]int32, error) {
	n := len(begin)
	size := uint64(n * 4)
	groups := workgroups(n)

	beginBuffer := d.createBuffer(bytesOf(begin), uploadUsage)
	defer beginBuffer.Release()
	endBuffer := d.createBuffer(bytesOf(end), uploadUsage)
	defer endBuffer.Release()

	partials := d.pool.Acquire(uint64(groups)*4, storageUsage)
	defer d.pool.Release(partials, uint64(groups)*4, storageUsage)

	params := d.createUniformBuffer(uint32(n)) //nolint:gosec // G115: n <= maxDeviceElements
	defer params.Release()

	key, code := shaderFor("diffSum", diffSumShader, numeric.Int32)
	d.dispatch(key, code, groups,
		binding{beginBuffer, size}, binding{endBuffer, size}, binding{partials, uint64(groups) * 4}, binding{params, 16})

	return readSlice[int32](d, partials, int(groups))
}

// mismatchesOnDevice returns one mismatch count per workgroup.
func mismatchesOnDevice(d *device, a, b []float32, eps float32) ([]uint32, error) {
	n := len(a)
	size := uint64(n * 4)
	groups := workgroups(n)

	aBuffer := d.createBuffer(bytesOf(a), uploadUsage)
	defer aBuffer.Release()
	bBuffer := d.createBuffer(bytesOf(b), uploadUsage)
	defer bBuffer.Release()

	partials := d.pool.Acquire(uint64(groups)*4, storageUsage)
	defer d.pool.Release(partials, uint64(groups)*4, storageUsage)

	params := d.createUniformBuffer(uint32(n), math.Float32bits(eps)) //nolint:gosec // G115: n <= maxDeviceElements
	defer params.Release()

	key, code := shaderFor("mismatch", mismatchShader, numeric.Float32)
	d.dispatch(key, code, groups,
		binding{aBuffer, size}, binding{bBuffer, size}, binding{partials, uint64(groups) * 4}, binding{params, 16})

	return readSlice[uint32](d, partials, int(groups))
}

func readSlice[T sumElement](d *device, buffer *wgpu.Buffer, count int) ([]T, error) {
	raw, err := d.readBuffer(buffer, uint64(count*4))
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	copy(bytesOf(out), raw)
	return out, nil
}

// bytesOf views a slice of 4-byte elements as bytes without copying.
func bytesOf[T sumElement](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy conversion
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}
