package backend

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// elementSize is the size in bytes of one int32 or float32 element.
const elementSize = 4

// Device is a compute device able to compile kernel programs and allocate
// buffers. A Device is owned by the caller and must outlive every GPUKernel
// built on it.
type Device interface {
	// Name identifies the device.
	Name() string

	// Compile compiles a kernel program.
	Compile(source string) (KernelLibrary, error)

	// NewBuffer allocates a zeroed buffer of the given size in bytes.
	NewBuffer(size int) (Buffer, error)
}

// KernelLibrary is a compiled kernel program.
type KernelLibrary interface {
	// Function returns the named kernel function.
	Function(name string) (Function, error)
}

// Function is a compiled kernel function.
type Function interface {
	// Dispatch runs the kernel over grid elements and blocks until it has
	// completed.
	Dispatch(grid int, buffers ...Buffer) error
}

// Buffer is device memory visible to the host.
type Buffer interface {
	Bytes() []byte
	Release()
}

// KernelName returns the kernel function name for an operation: "add",
// "sub", "mul" and "div" for floats and the same with an "Int" suffix for
// integers.
func KernelName(bop op.BinaryOpType, integer bool) string {
	if integer {
		return bop.Name() + "Int"
	}
	return bop.Name()
}

type kernelKey struct {
	bop     op.BinaryOpType
	integer bool
}

// GPUKernel dispatches each operation as a single-element compute kernel.
// Kernel functions are looked up on first use of an (operation, dtype) pair
// and cached for the lifetime of the backend.
type GPUKernel struct {
	device  Device
	library KernelLibrary
	logger  zerolog.Logger

	mu      sync.Mutex
	kernels map[kernelKey]Function
}

// GPUOption configures a GPUKernel.
type GPUOption func(*GPUKernel)

// WithGPULogger sets the logger used to trace kernel dispatches.
func WithGPULogger(logger zerolog.Logger) GPUOption {
	return func(g *GPUKernel) {
		g.logger = logger
	}
}

// NewGPU compiles the kernel source on the device. The device must remain
// valid for as long as the returned backend or any value bound to it is used.
func NewGPU(device Device, source string, opts ...GPUOption) (*GPUKernel, error) {
	if device == nil {
		return nil, errz.Preconditionf("gpu: no device")
	}
	lib, err := device.Compile(source)
	if err != nil {
		return nil, errz.Resolutionf("gpu: cannot compile kernels on %s", device.Name()).WithCause(err)
	}
	g := &GPUKernel{
		device:  device,
		library: lib,
		logger:  zerolog.Nop(),
		kernels: map[kernelKey]Function{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GPUKernel) Name() string { return "gpu" }

func (g *GPUKernel) Kind() Kind { return KindGPU }

// Device returns the device the kernels run on.
func (g *GPUKernel) Device() Device { return g.device }

func (g *GPUKernel) kernel(bop op.BinaryOpType, integer bool) (Function, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := kernelKey{bop: bop, integer: integer}
	if fn, ok := g.kernels[key]; ok {
		return fn, nil
	}
	if bop.Name() == "" {
		return nil, unsupportedOp(g.Name(), bop)
	}
	name := KernelName(bop, integer)
	fn, err := g.library.Function(name)
	if err != nil {
		return nil, errz.Resolutionf("gpu: kernel function %q not found", name).WithCause(err)
	}
	g.logger.Debug().Str("kernel", name).Str("device", g.device.Name()).Msg("kernel cached")
	g.kernels[key] = fn
	return fn, nil
}

func (g *GPUKernel) Int(bop op.BinaryOpType, a, b int32) (int32, error) {
	if err := checkIntDivisor(bop, b); err != nil {
		return 0, err
	}
	out, err := g.dispatch(bop, true, uint32(a), uint32(b))
	if err != nil {
		return 0, err
	}
	return int32(out), nil
}

func (g *GPUKernel) Float(bop op.BinaryOpType, a, b float32) (float32, error) {
	out, err := g.dispatch(bop, false, math.Float32bits(a), math.Float32bits(b))
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(out), nil
}

// dispatch runs one kernel over a single grid element. The operands and the
// result travel as raw 4-byte little-endian words.
func (g *GPUKernel) dispatch(bop op.BinaryOpType, integer bool, a, b uint32) (uint32, error) {
	fn, err := g.kernel(bop, integer)
	if err != nil {
		return 0, err
	}
	var buffers [3]Buffer
	defer func() {
		for _, buf := range buffers {
			if buf != nil {
				buf.Release()
			}
		}
	}()
	for i := range buffers {
		buf, err := g.device.NewBuffer(elementSize)
		if err != nil {
			return 0, errz.Preconditionf("gpu: cannot allocate buffer on %s", g.device.Name()).WithCause(err)
		}
		buffers[i] = buf
	}
	binary.LittleEndian.PutUint32(buffers[0].Bytes(), a)
	binary.LittleEndian.PutUint32(buffers[1].Bytes(), b)
	g.logger.Debug().Str("kernel", KernelName(bop, integer)).Msg("gpu dispatch")
	if err := fn.Dispatch(1, buffers[0], buffers[1], buffers[2]); err != nil {
		return 0, errz.Preconditionf("gpu: dispatch of %q failed", KernelName(bop, integer)).WithCause(err)
	}
	return binary.LittleEndian.Uint32(buffers[2].Bytes()), nil
}

// CachedKernels returns the number of kernel functions resolved so far.
func (g *GPUKernel) CachedKernels() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.kernels)
}

// Close drops the kernel cache. The device is owned by the caller and is
// not closed.
func (g *GPUKernel) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.kernels = map[kernelKey]Function{}
	return nil
}
