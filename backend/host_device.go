package backend

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sync"
)

var (
	kernelPattern  = regexp.MustCompile(`(?s)kernel\s+void\s+(\w+)\s*\((.*?)\)\s*\{(.*?)\}`)
	elemPattern    = regexp.MustCompile(`const\s+device\s+(float|int)\s*\*`)
	bodyPattern    = regexp.MustCompile(`^\s*C\[id\]\s*=\s*A\[id\]\s*([-+*/])\s*B\[id\]\s*;\s*$`)
	commentPattern = regexp.MustCompile(`//[^\n]*`)
)

// HostDevice is an in-process compute device. It compiles kernel programs
// written in the elementwise form used by KernelSource and executes them on
// the host, one grid element at a time. It stands in for a hardware device
// where no driver is available.
type HostDevice struct {
	name string
	mu   sync.Mutex
	live int
}

// NewHostDevice returns a new host device.
func NewHostDevice() *HostDevice {
	return &HostDevice{name: "host"}
}

func (d *HostDevice) Name() string { return d.name }

// LiveBuffers returns the number of allocated, unreleased buffers.
func (d *HostDevice) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// Compile parses every kernel definition in source. Kernels that are not of
// the form C[id] = A[id] <op> B[id] are rejected.
func (d *HostDevice) Compile(source string) (KernelLibrary, error) {
	source = commentPattern.ReplaceAllString(source, "")
	matches := kernelPattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no kernel functions found")
	}
	lib := &hostLibrary{functions: map[string]*hostFunction{}}
	for _, m := range matches {
		name, params, body := m[1], m[2], m[3]
		elem := elemPattern.FindStringSubmatch(params)
		if elem == nil {
			return nil, fmt.Errorf("kernel %s: unsupported parameter list", name)
		}
		expr := bodyPattern.FindStringSubmatch(body)
		if expr == nil {
			return nil, fmt.Errorf("kernel %s: unsupported body", name)
		}
		if _, exists := lib.functions[name]; exists {
			return nil, fmt.Errorf("kernel %s: duplicate definition", name)
		}
		lib.functions[name] = &hostFunction{
			name:    name,
			integer: elem[1] == "int",
			op:      expr[1][0],
		}
	}
	return lib, nil
}

// NewBuffer allocates a zeroed host buffer.
func (d *HostDevice) NewBuffer(size int) (Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid buffer size %d", size)
	}
	d.mu.Lock()
	d.live++
	d.mu.Unlock()
	return &hostBuffer{device: d, data: make([]byte, size)}, nil
}

type hostLibrary struct {
	functions map[string]*hostFunction
}

func (l *hostLibrary) Function(name string) (Function, error) {
	fn, ok := l.functions[name]
	if !ok {
		return nil, fmt.Errorf("function %q not defined", name)
	}
	return fn, nil
}

type hostFunction struct {
	name    string
	integer bool
	op      byte
}

func (f *hostFunction) Dispatch(grid int, buffers ...Buffer) error {
	if len(buffers) != 3 {
		return fmt.Errorf("%s: expected 3 buffers, got %d", f.name, len(buffers))
	}
	a, b, c := buffers[0].Bytes(), buffers[1].Bytes(), buffers[2].Bytes()
	need := grid * elementSize
	if len(a) < need || len(b) < need || len(c) < need {
		return fmt.Errorf("%s: buffers too small for grid of %d", f.name, grid)
	}
	for id := 0; id < grid; id++ {
		off := id * elementSize
		x := binary.LittleEndian.Uint32(a[off:])
		y := binary.LittleEndian.Uint32(b[off:])
		var z uint32
		if f.integer {
			r, err := f.intOp(int32(x), int32(y))
			if err != nil {
				return err
			}
			z = uint32(r)
		} else {
			z = math.Float32bits(f.floatOp(math.Float32frombits(x), math.Float32frombits(y)))
		}
		binary.LittleEndian.PutUint32(c[off:], z)
	}
	return nil
}

func (f *hostFunction) intOp(x, y int32) (int32, error) {
	switch f.op {
	case '+':
		return x + y, nil
	case '-':
		return x - y, nil
	case '*':
		return x * y, nil
	default:
		if y == 0 {
			return 0, fmt.Errorf("%s: integer division by zero", f.name)
		}
		return x / y, nil
	}
}

func (f *hostFunction) floatOp(x, y float32) float32 {
	switch f.op {
	case '+':
		return x + y
	case '-':
		return x - y
	case '*':
		return x * y
	default:
		return x / y
	}
}

type hostBuffer struct {
	device   *HostDevice
	data     []byte
	released bool
}

func (b *hostBuffer) Bytes() []byte { return b.data }

func (b *hostBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.device.mu.Lock()
	b.device.live--
	b.device.mu.Unlock()
}
