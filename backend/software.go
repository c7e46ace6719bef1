package backend

import (
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Software evaluates operations with host arithmetic. Integer arithmetic
// wraps on overflow and truncates on division. Float division by zero yields
// the IEEE-754 result (±Inf or NaN).
type Software struct{}

// NewSoftware returns the software backend.
func NewSoftware() *Software {
	return &Software{}
}

func (s *Software) Name() string { return "software" }

func (s *Software) Kind() Kind { return KindSoftware }

// Int applies bop to two int32 operands with wrapping overflow.
func (s *Software) Int(bop op.BinaryOpType, a, b int32) (int32, error) {
	switch bop {
	case op.Addition:
		return a + b, nil
	case op.Subtraction:
		return a - b, nil
	case op.Multiplication:
		return a * b, nil
	case op.Division:
		if err := checkIntDivisor(bop, b); err != nil {
			return 0, err
		}
		return a / b, nil
	default:
		return 0, unsupportedOp(s.Name(), bop)
	}
}

// Float applies bop to two float32 operands with IEEE 754 semantics.
func (s *Software) Float(bop op.BinaryOpType, a, b float32) (float32, error) {
	switch bop {
	case op.Addition:
		return a + b, nil
	case op.Subtraction:
		return a - b, nil
	case op.Multiplication:
		return a * b, nil
	case op.Division:
		return a / b, nil
	default:
		return 0, unsupportedOp(s.Name(), bop)
	}
}

func (s *Software) Close() error { return nil }
