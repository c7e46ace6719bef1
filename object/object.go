// Package object provides the scalar Value type evaluated by the stack
// machine.
//
// A Value is an integer, float or text scalar. Each value may be bound to a
// compute backend; arithmetic on the value runs on the backend of the left
// operand and the result stays bound to it. Unbound values use the software
// backend.
//
// For example:
//
//	gpu, _ := backend.NewGPU(device, backend.KernelSource)
//	x := object.NewInt(50).To(gpu)
//	y := object.NewInt(50).To(gpu)
//	z, err := x.Add(y) // dispatched as the addInt kernel
//
// Values are immutable. Casting returns a new value.
package object

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/scalarvm/errz"
)

// DType is the data type of a Value. The ordinal order INT < FLOAT < TEXT is
// the coercion rank: under implicit casting the lower-ranked operand is cast
// to the type of the higher-ranked one.
type DType uint8

// DType constants
const (
	INT   DType = 0
	FLOAT DType = 1
	TEXT  DType = 2
)

// String returns the name of the dtype.
func (d DType) String() string {
	switch d {
	case INT:
		return "int"
	case FLOAT:
		return "float"
	case TEXT:
		return "text"
	default:
		return fmt.Sprintf("dtype(%d)", d)
	}
}

// IsValid reports whether d is one of the known dtypes.
func (d DType) IsValid() bool {
	return d <= TEXT
}

// IsNumeric reports whether d is INT or FLOAT.
func (d DType) IsNumeric() bool {
	return d == INT || d == FLOAT
}

// ParseDType parses a dtype name such as "int", "float" or "text".
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "i32":
		return INT, nil
	case "float", "f32":
		return FLOAT, nil
	case "text", "string", "str":
		return TEXT, nil
	default:
		return 0, errz.Preconditionf("unknown dtype %q", s)
	}
}
