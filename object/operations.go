package object

import (
	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// assertOp resolves a dtype mismatch between two operands. When both allow
// implicit casting, the lower-ranked operand is cast to the dtype of the
// other. Otherwise a mismatch is an error.
func assertOp(opType op.BinaryOpType, left, right *Value) (*Value, *Value, error) {
	if left.dtype == right.dtype {
		return left, right, nil
	}
	if !left.implicitCast || !right.implicitCast {
		return nil, nil, newMismatchError(opType, left.dtype, right.dtype)
	}
	if left.dtype < right.dtype {
		cast, err := left.CastTo(right.dtype)
		if err != nil {
			return nil, nil, err
		}
		return cast, right, nil
	}
	cast, err := right.CastTo(left.dtype)
	if err != nil {
		return nil, nil, err
	}
	return left, cast, nil
}

// RunOperation runs an operation on this value with the given right-hand
// side value. The operation executes on the backend this value is bound to.
// The result has this value's dtype (after coercion) and backend binding.
func (v *Value) RunOperation(opType op.BinaryOpType, right *Value) (*Value, error) {
	if right == nil {
		return nil, errz.Preconditionf("operation %s: missing right operand", opType)
	}
	if opType != op.Addition && (v.dtype == TEXT || right.dtype == TEXT) {
		return nil, newUnsupportedError(opType, TEXT)
	}
	left, right, err := assertOp(opType, v, right)
	if err != nil {
		return nil, err
	}
	b := left.resolveBackend()
	switch left.dtype {
	case INT:
		result, err := b.Int(opType, left.i, right.i)
		if err != nil {
			return nil, err
		}
		return &Value{dtype: INT, i: result, backend: left.backend}, nil
	case FLOAT:
		result, err := b.Float(opType, left.f, right.f)
		if err != nil {
			return nil, err
		}
		return &Value{dtype: FLOAT, f: result, backend: left.backend}, nil
	case TEXT:
		if b.Kind() != backend.KindSoftware {
			return nil, errz.Preconditionf("operation %s not supported for text on the %s backend", opType, b.Name())
		}
		return &Value{dtype: TEXT, s: left.s + right.s, backend: left.backend}, nil
	default:
		return nil, errz.Preconditionf("invalid dtype %s", left.dtype)
	}
}

// BinaryOp performs a binary operation on two values, given an operator.
func BinaryOp(opType op.BinaryOpType, a, b *Value) (*Value, error) {
	if a == nil {
		return nil, errz.Preconditionf("operation %s: missing left operand", opType)
	}
	return a.RunOperation(opType, b)
}
