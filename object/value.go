package object

import (
	"fmt"
	"math"
	"strconv"

	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/op"
)

var software = backend.NewSoftware()

// Value is a tagged scalar: an int32, a float32 or a string, as selected by
// its dtype. It remembers the backend it is bound to and whether it may be
// implicitly cast when combined with a value of another dtype.
//
// A bound value holds a reference to its backend. The backend, and any
// library or device behind it, must outlive the value.
type Value struct {
	dtype        DType
	i            int32
	f            float32
	s            string
	implicitCast bool
	backend      backend.Backend
}

// NewInt returns an unbound integer value.
func NewInt(value int32) *Value {
	return &Value{dtype: INT, i: value}
}

// NewFloat returns an unbound float value.
func NewFloat(value float32) *Value {
	return &Value{dtype: FLOAT, f: value}
}

// NewText returns an unbound text value.
func NewText(value string) *Value {
	return &Value{dtype: TEXT, s: value}
}

func (v *Value) clone() *Value {
	cp := *v
	return &cp
}

// WithImplicitCast returns a copy of the value with the implicit-cast flag
// set as given.
func (v *Value) WithImplicitCast(enabled bool) *Value {
	cp := v.clone()
	cp.implicitCast = enabled
	return cp
}

// To returns a copy of the value bound to the given backend. A nil backend
// unbinds the value, which then evaluates in software.
func (v *Value) To(b backend.Backend) *Value {
	cp := v.clone()
	cp.backend = b
	return cp
}

// DType returns the value's data type.
func (v *Value) DType() DType { return v.dtype }

// Int returns the payload of an INT value.
func (v *Value) Int() int32 { return v.i }

// Float returns the payload of a FLOAT value.
func (v *Value) Float() float32 { return v.f }

// Text returns the payload of a TEXT value.
func (v *Value) Text() string { return v.s }

// ImplicitCast reports whether the value may be coerced to match the other operand.
func (v *Value) ImplicitCast() bool { return v.implicitCast }

// Backend returns the backend the value is bound to, or nil if unbound.
func (v *Value) Backend() backend.Backend { return v.backend }

// BackendName returns the name of the bound backend, "software" if unbound.
func (v *Value) BackendName() string {
	return v.resolveBackend().Name()
}

func (v *Value) resolveBackend() backend.Backend {
	if v.backend == nil {
		return software
	}
	return v.backend
}

// Interface converts the value to a native Go value.
func (v *Value) Interface() interface{} {
	switch v.dtype {
	case INT:
		return v.i
	case FLOAT:
		return v.f
	default:
		return v.s
	}
}

// String returns the payload formatted as text, the same representation a
// cast to TEXT produces.
func (v *Value) String() string {
	switch v.dtype {
	case INT:
		return strconv.FormatInt(int64(v.i), 10)
	case FLOAT:
		return strconv.FormatFloat(float64(v.f), 'f', -1, 32)
	default:
		return v.s
	}
}

// Inspect returns a representation including the dtype, e.g. int(5) or
// text("abc").
func (v *Value) Inspect() string {
	if v.dtype == TEXT {
		return fmt.Sprintf("text(%q)", v.s)
	}
	return fmt.Sprintf("%s(%s)", v.dtype, v.String())
}

// Equals returns true if both values have the same dtype and bit-identical
// payloads. The implicit-cast flag and backend binding are not compared.
func (v *Value) Equals(other *Value) bool {
	if other == nil || v.dtype != other.dtype {
		return false
	}
	switch v.dtype {
	case INT:
		return v.i == other.i
	case FLOAT:
		return math.Float32bits(v.f) == math.Float32bits(other.f)
	default:
		return v.s == other.s
	}
}

// Add returns v + right. Text operands concatenate on the software backend.
func (v *Value) Add(right *Value) (*Value, error) {
	return v.RunOperation(op.Addition, right)
}

// Sub returns v - right.
func (v *Value) Sub(right *Value) (*Value, error) {
	return v.RunOperation(op.Subtraction, right)
}

// Mul returns v * right.
func (v *Value) Mul(right *Value) (*Value, error) {
	return v.RunOperation(op.Multiplication, right)
}

// Div returns v / right. Integer division by zero is an arithmetic error.
func (v *Value) Div(right *Value) (*Value, error) {
	return v.RunOperation(op.Division, right)
}
