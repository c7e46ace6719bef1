// Package backend provides the compute backends that scalar values are bound
// to. A Backend performs the four arithmetic operations over two same-typed
// numeric payloads. Three variants exist:
//
//   - Software evaluates in-process with Go arithmetic.
//   - NativeLibrary calls into a shared library exposing i_add, f_add, etc.
//   - GPUKernel dispatches one-element compute kernels on a Device.
//
// Backends that own external resources (a library handle, a device) must be
// closed by whoever created them, and those resources must outlive every value
// bound to the backend. This is a caller precondition and is not checked.
//
// Backends are not safe for concurrent dispatch. Lazily populated caches are
// guarded, but device and library calls assume a single caller at a time.
package backend

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Kind identifies a backend variant.
type Kind uint8

const (
	KindSoftware Kind = iota
	KindNative
	KindGPU
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSoftware:
		return "software"
	case KindNative:
		return "native"
	case KindGPU:
		return "gpu"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// ParseKind parses a backend kind name. Matching is case-insensitive and
// accepts a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "software", "sw", "":
		return KindSoftware, nil
	case "native", "cpu_c", "c":
		return KindNative, nil
	case "gpu", "metal", "kernel":
		return KindGPU, nil
	default:
		return 0, errz.Preconditionf("unknown backend %q", s)
	}
}

// Backend is the capability set shared by all compute backends. Given an
// operation and two payloads of the same numeric type, it returns one payload
// of that type or an error.
type Backend interface {
	// Name returns a short human-readable name for logs and listings.
	Name() string

	// Kind returns the backend variant.
	Kind() Kind

	// Int performs the operation on two int32 payloads.
	Int(bop op.BinaryOpType, a, b int32) (int32, error)

	// Float performs the operation on two float32 payloads.
	Float(bop op.BinaryOpType, a, b float32) (float32, error)

	// Close releases any resources held by the backend.
	Close() error
}

// checkIntDivisor rejects integer division by zero before it reaches a
// backend. Native code would trap and kernels are undefined on it.
func checkIntDivisor(bop op.BinaryOpType, b int32) error {
	if bop == op.Division && b == 0 {
		return errz.Arithmeticf("integer division by zero")
	}
	return nil
}

func unsupportedOp(backend string, bop op.BinaryOpType) error {
	return errz.Preconditionf("%s: unsupported operation %d", backend, bop)
}
