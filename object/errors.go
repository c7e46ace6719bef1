package object

import (
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

func newMismatchError(opType op.BinaryOpType, left, right DType) error {
	return errz.Preconditionf("operands are not the same dtype: %s %s %s", left, opType, right)
}

func newUnsupportedError(opType op.BinaryOpType, dtype DType) error {
	return errz.Preconditionf("operation %s not supported for %s", opType, dtype)
}

func newCastError(from, to DType, format string, args ...any) error {
	e := errz.Conversionf(format, args...)
	e.Message = "cannot cast " + from.String() + " to " + to.String() + ": " + e.Message
	return e
}
