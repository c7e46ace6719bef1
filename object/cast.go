package object

import (
	"math"
	"strconv"

	"github.com/deepnoodle-ai/scalarvm/errz"
)

// CastTo returns a new value holding this value's payload converted to the
// target dtype. The implicit-cast flag and backend binding are preserved.
//
// Text converts to a number only when it is a non-empty string of ASCII
// digits. Numbers always convert to text. Float to int truncates toward
// zero and fails when the result does not fit in an int32.
func (v *Value) CastTo(target DType) (*Value, error) {
	if !target.IsValid() {
		return nil, errz.Preconditionf("invalid cast target %s", target)
	}
	if target == v.dtype {
		return v, nil
	}
	out := &Value{dtype: target, implicitCast: v.implicitCast, backend: v.backend}
	switch v.dtype {
	case TEXT:
		if !isDigits(v.s) {
			return nil, newCastError(v.dtype, target, "%q is not numeric", v.s)
		}
		if target == INT {
			n, err := strconv.ParseInt(v.s, 10, 32)
			if err != nil {
				return nil, newCastError(v.dtype, target, "%q is out of range", v.s)
			}
			out.i = int32(n)
		} else {
			f, err := strconv.ParseFloat(v.s, 32)
			if err != nil {
				return nil, newCastError(v.dtype, target, "%q is out of range", v.s)
			}
			out.f = float32(f)
		}
	case INT:
		if target == FLOAT {
			out.f = float32(v.i)
		} else {
			out.s = v.String()
		}
	case FLOAT:
		if target == INT {
			t := math.Trunc(float64(v.f))
			if math.IsNaN(t) || t < math.MinInt32 || t > math.MaxInt32 {
				return nil, newCastError(v.dtype, target, "%s is out of range", v.String())
			}
			out.i = int32(t)
		} else {
			out.s = v.String()
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
