package webgpu

import (
	"strings"

	"github.com/born-ml/parkit/internal/numeric"
)

// Shader templates use ELEM for the WGSL element type.

// blockScanShader computes the inclusive scan of every 256 element block in
// workgroup shared memory and stores each block total in block_sums.
const blockScanShader = `
@group(0) @binding(0) var<storage, read> input: array<ELEM>;
@group(0) @binding(1) var<storage, read_write> result: array<ELEM>;
@group(0) @binding(2) var<storage, read_write> block_sums: array<ELEM>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

var<workgroup> shared_data: array<ELEM, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;
    let gid = global_id.x;

    var value = ELEM(0);
    if (gid < params.size) {
        value = input[gid];
    }
    shared_data[tid] = value;
    workgroupBarrier();

    // Hillis-Steele scan in shared memory
    for (var offset: u32 = 1u; offset < 256u; offset = offset << 1u) {
        var addend = ELEM(0);
        if (tid >= offset) {
            addend = shared_data[tid - offset];
        }
        workgroupBarrier();
        shared_data[tid] = shared_data[tid] + addend;
        workgroupBarrier();
    }

    if (gid < params.size) {
        result[gid] = shared_data[tid];
    }
    if (tid == 255u) {
        block_sums[workgroup_id.x] = shared_data[255u];
    }
}
`

// addOffsetsShader adds the exclusive block offset to every element of a
// block scan. With params.exclusive set it also subtracts the original
// element, turning the inclusive result into an exclusive one.
const addOffsetsShader = `
@group(0) @binding(0) var<storage, read> input: array<ELEM>;
@group(0) @binding(1) var<storage, read_write> result: array<ELEM>;
@group(0) @binding(2) var<storage, read> offsets: array<ELEM>;

struct Params {
    size: u32,
    exclusive: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let idx = global_id.x;
    if (idx < params.size) {
        var value = result[idx] + offsets[workgroup_id.x];
        if (params.exclusive != 0u) {
            value = value - input[idx];
        }
        result[idx] = value;
    }
}
`

// globalSumShader performs parallel sum reduction.
// Each workgroup writes one partial sum; partials are finished on the host.
const globalSumShader = `
@group(0) @binding(0) var<storage, read> input: array<ELEM>;
@group(0) @binding(1) var<storage, read_write> result: array<ELEM>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> shared_data: array<ELEM, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;
    let gid = global_id.x;

    if (gid < params.size) {
        shared_data[tid] = input[gid];
    } else {
        shared_data[tid] = ELEM(0);
    }
    workgroupBarrier();

    for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
        if (tid < s) {
            shared_data[tid] = shared_data[tid] + shared_data[tid + s];
        }
        workgroupBarrier();
    }

    if (tid == 0u) {
        result[workgroup_id.x] = shared_data[0];
    }
}
`

// diffSumShader reduces end[i] - begin[i] to one partial per workgroup.
const diffSumShader = `
@group(0) @binding(0) var<storage, read> begin_offsets: array<ELEM>;
@group(0) @binding(1) var<storage, read> end_offsets: array<ELEM>;
@group(0) @binding(2) var<storage, read_write> result: array<ELEM>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

var<workgroup> shared_data: array<ELEM, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;
    let gid = global_id.x;

    if (gid < params.size) {
        shared_data[tid] = end_offsets[gid] - begin_offsets[gid];
    } else {
        shared_data[tid] = ELEM(0);
    }
    workgroupBarrier();

    for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
        if (tid < s) {
            shared_data[tid] = shared_data[tid] + shared_data[tid + s];
        }
        workgroupBarrier();
    }

    if (tid == 0u) {
        result[workgroup_id.x] = shared_data[0];
    }
}
`

// mismatchShader counts elements with |a - b| > eps, one count per
// workgroup. The boundary is inclusive: a difference equal to eps matches.
const mismatchShader = `
@group(0) @binding(0) var<storage, read> a: array<ELEM>;
@group(0) @binding(1) var<storage, read> b: array<ELEM>;
@group(0) @binding(2) var<storage, read_write> result: array<u32>;

struct Params {
    size: u32,
    eps: ELEM,
}
@group(0) @binding(3) var<uniform> params: Params;

var<workgroup> shared_data: array<u32, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;
    let gid = global_id.x;

    var count = 0u;
    if (gid < params.size && abs(a[gid] - b[gid]) > params.eps) {
        count = 1u;
    }
    shared_data[tid] = count;
    workgroupBarrier();

    for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
        if (tid < s) {
            shared_data[tid] = shared_data[tid] + shared_data[tid + s];
        }
        workgroupBarrier();
    }

    if (tid == 0u) {
        result[workgroup_id.x] = shared_data[0];
    }
}
`

// wgslType returns the WGSL scalar type for dt, or "" if dt has none.
func wgslType(dt numeric.DataType) string {
	switch dt {
	case numeric.Int32:
		return "i32"
	case numeric.Uint32:
		return "u32"
	case numeric.Float32:
		return "f32"
	default:
		return ""
	}
}

// shaderFor instantiates a shader template for dt and returns the cache key
// together with the WGSL source.
func shaderFor(name, template string, dt numeric.DataType) (key, code string) {
	elem := wgslType(dt)
	if elem == "" {
		panic("webgpu: no WGSL type for " + dt.String())
	}
	return name + "_" + elem, strings.ReplaceAll(template, "ELEM", elem)
}

// workgroups returns the number of workgroups covering n elements.
func workgroups(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize) //nolint:gosec // G115: n <= maxDeviceElements
}
