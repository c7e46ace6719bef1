package backend

// KernelSource is the compute-kernel program dispatched by GPUKernel. Each
// kernel reads one element from A and B and writes one element to C.
const KernelSource = `
#include <metal_stdlib>
using namespace metal;

kernel void add(const device float *A [[buffer(0)]],
                const device float *B [[buffer(1)]],
                device float *C [[buffer(2)]],
                uint id [[thread_position_in_grid]]) {
    C[id] = A[id] + B[id];
}

kernel void sub(const device float *A [[buffer(0)]],
                const device float *B [[buffer(1)]],
                device float *C [[buffer(2)]],
                uint id [[thread_position_in_grid]]) {
    C[id] = A[id] - B[id];
}

kernel void mul(const device float *A [[buffer(0)]],
                const device float *B [[buffer(1)]],
                device float *C [[buffer(2)]],
                uint id [[thread_position_in_grid]]) {
    C[id] = A[id] * B[id];
}

kernel void div(const device float *A [[buffer(0)]],
                const device float *B [[buffer(1)]],
                device float *C [[buffer(2)]],
                uint id [[thread_position_in_grid]]) {
    C[id] = A[id] / B[id];
}

kernel void addInt(const device int *A [[buffer(0)]],
                   const device int *B [[buffer(1)]],
                   device int *C [[buffer(2)]],
                   uint id [[thread_position_in_grid]]) {
    C[id] = A[id] + B[id];
}

kernel void subInt(const device int *A [[buffer(0)]],
                   const device int *B [[buffer(1)]],
                   device int *C [[buffer(2)]],
                   uint id [[thread_position_in_grid]]) {
    C[id] = A[id] - B[id];
}

kernel void mulInt(const device int *A [[buffer(0)]],
                   const device int *B [[buffer(1)]],
                   device int *C [[buffer(2)]],
                   uint id [[thread_position_in_grid]]) {
    C[id] = A[id] * B[id];
}

kernel void divInt(const device int *A [[buffer(0)]],
                   const device int *B [[buffer(1)]],
                   device int *C [[buffer(2)]],
                   uint id [[thread_position_in_grid]]) {
    C[id] = A[id] / B[id];
}
`
