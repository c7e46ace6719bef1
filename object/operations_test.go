package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

func TestIntArithmetic(t *testing.T) {
	tests := []struct {
		opType op.BinaryOpType
		a, b   int32
		want   int32
	}{
		{op.Addition, 10, 5, 15},
		{op.Subtraction, 10, 5, 5},
		{op.Multiplication, 10, 5, 50},
		{op.Division, 10, 5, 2},
		{op.Division, 10, 3, 3},
		{op.Division, -10, 3, -3},
	}
	for _, tt := range tests {
		result, err := BinaryOp(tt.opType, NewInt(tt.a), NewInt(tt.b))
		require.NoError(t, err)
		require.Equal(t, INT, result.DType())
		require.Equal(t, tt.want, result.Int(), "%d %s %d", tt.a, tt.opType, tt.b)
	}
}

func TestFloatArithmetic(t *testing.T) {
	a, b := NewFloat(7.5), NewFloat(2.5)
	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, float32(10), sum.Float())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, float32(5), diff.Float())

	prod, err := a.Mul(b)
	require.NoError(t, err)
	require.Equal(t, float32(18.75), prod.Float())

	quot, err := a.Div(b)
	require.NoError(t, err)
	require.Equal(t, float32(3), quot.Float())
}

func TestDivisionByZero(t *testing.T) {
	_, err := NewInt(1).Div(NewInt(0))
	require.ErrorIs(t, err, errz.ErrArithmetic)

	result, err := NewFloat(1).Div(NewFloat(0))
	require.NoError(t, err)
	require.True(t, math.IsInf(float64(result.Float()), 1))

	result, err = NewFloat(0).Div(NewFloat(0))
	require.NoError(t, err)
	require.True(t, math.IsNaN(float64(result.Float())))
}

func TestImplicitCoercion(t *testing.T) {
	left := NewInt(3).WithImplicitCast(true)
	right := NewFloat(2.0).WithImplicitCast(true)

	result, err := left.Add(right)
	require.NoError(t, err)
	require.Equal(t, FLOAT, result.DType())
	require.Equal(t, float32(5.0), result.Float())
	require.False(t, result.ImplicitCast(), "results never carry the implicit-cast flag")

	// Coercion is by dtype rank, not by operand position.
	result, err = right.Add(left)
	require.NoError(t, err)
	require.Equal(t, FLOAT, result.DType())
	require.Equal(t, float32(5.0), result.Float())

	// Operands are not modified.
	require.Equal(t, INT, left.DType())
}

func TestCoercionRequiresBothFlags(t *testing.T) {
	tests := []struct {
		left, right *Value
	}{
		{NewInt(3), NewFloat(2)},
		{NewInt(3).WithImplicitCast(true), NewFloat(2)},
		{NewInt(3), NewFloat(2).WithImplicitCast(true)},
	}
	for _, tt := range tests {
		_, err := tt.left.Add(tt.right)
		require.ErrorIs(t, err, errz.ErrPrecondition)
	}
}

func TestTextOperations(t *testing.T) {
	result, err := NewText("foo").Add(NewText("bar"))
	require.NoError(t, err)
	require.Equal(t, "foobar", result.Text())

	result, err = NewText("n=").WithImplicitCast(true).Add(NewInt(4).WithImplicitCast(true))
	require.NoError(t, err)
	require.Equal(t, TEXT, result.DType())
	require.Equal(t, "n=4", result.Text())

	for _, opType := range []op.BinaryOpType{op.Subtraction, op.Multiplication, op.Division} {
		_, err := BinaryOp(opType, NewText("a"), NewText("b"))
		require.ErrorIs(t, err, errz.ErrPrecondition)
		_, err = BinaryOp(opType, NewInt(1).WithImplicitCast(true), NewText("2").WithImplicitCast(true))
		require.ErrorIs(t, err, errz.ErrPrecondition)
	}
}

func TestCoercionConversionFailure(t *testing.T) {
	// Numbers rank below TEXT, so the float is formatted and concatenated; a
	// failing cast only happens when text must become a number.
	_, err := NewFloat(1).WithImplicitCast(true).Add(NewText("x").WithImplicitCast(true))
	require.NoError(t, err)

	_, err = NewText("x").CastTo(FLOAT)
	require.ErrorIs(t, err, errz.ErrConversion)
}

func TestResultKeepsLeftBackend(t *testing.T) {
	gpu, err := backend.NewGPU(backend.NewHostDevice(), backend.KernelSource)
	require.NoError(t, err)

	x := NewInt(50).To(gpu)
	y := NewInt(50)
	z, err := x.Add(y)
	require.NoError(t, err)
	require.Equal(t, int32(100), z.Int())
	require.Same(t, gpu, z.Backend())
	require.Equal(t, 1, gpu.CachedKernels())

	// The right operand's binding is ignored.
	w, err := y.Add(x)
	require.NoError(t, err)
	require.Nil(t, w.Backend())
	require.Equal(t, 1, gpu.CachedKernels())
}

func TestTextOnAcceleratedBackendFails(t *testing.T) {
	gpu, err := backend.NewGPU(backend.NewHostDevice(), backend.KernelSource)
	require.NoError(t, err)
	_, err = NewText("a").To(gpu).Add(NewText("b"))
	require.ErrorIs(t, err, errz.ErrPrecondition)

	result, err := NewText("a").To(backend.NewSoftware()).Add(NewText("b"))
	require.NoError(t, err)
	require.Equal(t, "ab", result.Text())
}

func TestBackendParityThroughValues(t *testing.T) {
	gpu, err := backend.NewGPU(backend.NewHostDevice(), backend.KernelSource)
	require.NoError(t, err)
	for _, opType := range op.BinaryOps {
		want, err := BinaryOp(opType, NewInt(120), NewInt(7))
		require.NoError(t, err)
		got, err := BinaryOp(opType, NewInt(120).To(gpu), NewInt(7).To(gpu))
		require.NoError(t, err)
		require.True(t, want.Equals(got), "%s: %s != %s", opType, want.Inspect(), got.Inspect())
	}
}

func TestMissingOperands(t *testing.T) {
	_, err := NewInt(1).Add(nil)
	require.ErrorIs(t, err, errz.ErrPrecondition)
	_, err = BinaryOp(op.Addition, nil, NewInt(1))
	require.ErrorIs(t, err, errz.ErrPrecondition)
}
