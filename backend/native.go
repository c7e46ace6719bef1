package backend

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// library is the foreign-call boundary of a loaded shared library. All unsafe
// code lives behind it.
type library interface {
	lookup(name string) (uintptr, error)
	intFunc(sym uintptr) func(int32, int32) int32
	floatFunc(sym uintptr) func(float32, float32) float32
	close() error
}

// SymbolName returns the native entry point for an operation, following the
// {i,f}_{add,sub,mul,div} naming convention.
func SymbolName(bop op.BinaryOpType, integer bool) string {
	if integer {
		return "i_" + bop.Name()
	}
	return "f_" + bop.Name()
}

// NativeLibrary calls arithmetic entry points exported by a shared library.
// All eight entry points are resolved when the library is opened, so a call
// never goes through a missing symbol.
//
// The library handle is shared by every value bound to the backend and is
// released by Close. Values must not be used after Close.
type NativeLibrary struct {
	path   string
	lib    library
	ints   [4]func(int32, int32) int32
	floats [4]func(float32, float32) float32
	logger zerolog.Logger
	mu     sync.Mutex
	closed bool
}

// NativeOption configures a NativeLibrary.
type NativeOption func(*NativeLibrary)

// WithNativeLogger sets the logger used to trace native calls.
func WithNativeLogger(logger zerolog.Logger) NativeOption {
	return func(n *NativeLibrary) {
		n.logger = logger
	}
}

// OpenNative loads the shared library at path and resolves its entry points.
func OpenNative(path string, opts ...NativeOption) (*NativeLibrary, error) {
	lib, err := loadLibrary(path)
	if err != nil {
		return nil, err
	}
	n, err := newNative(path, lib, opts...)
	if err != nil {
		_ = lib.close()
		return nil, err
	}
	return n, nil
}

func newNative(path string, lib library, opts ...NativeOption) (*NativeLibrary, error) {
	n := &NativeLibrary{path: path, lib: lib, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(n)
	}
	// Resolve every symbol before binding any of them.
	var intSyms, floatSyms [4]uintptr
	for _, bop := range op.BinaryOps {
		for _, integer := range []bool{true, false} {
			name := SymbolName(bop, integer)
			sym, err := lib.lookup(name)
			if err != nil {
				return nil, errz.Resolutionf("%s: symbol %q not found", path, name).WithCause(err)
			}
			if sym == 0 {
				return nil, errz.Resolutionf("%s: symbol %q not found", path, name)
			}
			if integer {
				intSyms[bop] = sym
			} else {
				floatSyms[bop] = sym
			}
		}
	}
	for _, bop := range op.BinaryOps {
		n.ints[bop] = lib.intFunc(intSyms[bop])
		n.floats[bop] = lib.floatFunc(floatSyms[bop])
	}
	n.logger.Debug().Str("path", path).Msg("native library resolved")
	return n, nil
}

func (n *NativeLibrary) Name() string { return "native" }

func (n *NativeLibrary) Kind() Kind { return KindNative }

// Path returns the path the library was loaded from.
func (n *NativeLibrary) Path() string { return n.path }

func (n *NativeLibrary) Int(bop op.BinaryOpType, a, b int32) (int32, error) {
	if int(bop) >= len(n.ints) {
		return 0, unsupportedOp(n.Name(), bop)
	}
	if err := n.check(); err != nil {
		return 0, err
	}
	if err := checkIntDivisor(bop, b); err != nil {
		return 0, err
	}
	// MinInt32 / -1 traps in C; it wraps to MinInt32 on every other backend.
	if bop == op.Division && a == math.MinInt32 && b == -1 {
		return math.MinInt32, nil
	}
	n.logger.Debug().Str("symbol", SymbolName(bop, true)).Int32("a", a).Int32("b", b).Msg("native call")
	return n.ints[bop](a, b), nil
}

func (n *NativeLibrary) Float(bop op.BinaryOpType, a, b float32) (float32, error) {
	if int(bop) >= len(n.floats) {
		return 0, unsupportedOp(n.Name(), bop)
	}
	if err := n.check(); err != nil {
		return 0, err
	}
	n.logger.Debug().Str("symbol", SymbolName(bop, false)).Float32("a", a).Float32("b", b).Msg("native call")
	return n.floats[bop](a, b), nil
}

func (n *NativeLibrary) check() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errz.Preconditionf("%s: native library is closed", n.path)
	}
	return nil
}

// Close releases the library handle. Closing twice is a no-op.
func (n *NativeLibrary) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	return n.lib.close()
}
