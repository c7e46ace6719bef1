package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scalarvm/backend"
)

func TestValueAccessors(t *testing.T) {
	i := NewInt(42)
	require.Equal(t, INT, i.DType())
	require.Equal(t, int32(42), i.Int())
	require.Equal(t, int32(42), i.Interface())
	require.False(t, i.ImplicitCast())
	require.Nil(t, i.Backend())
	require.Equal(t, "software", i.BackendName())

	f := NewFloat(2.5)
	require.Equal(t, FLOAT, f.DType())
	require.Equal(t, float32(2.5), f.Float())
	require.Equal(t, "2.5", f.String())
	require.Equal(t, "float(2.5)", f.Inspect())

	s := NewText("abc")
	require.Equal(t, TEXT, s.DType())
	require.Equal(t, "abc", s.Text())
	require.Equal(t, `text("abc")`, s.Inspect())
	require.Equal(t, "int(42)", i.Inspect())
}

func TestValueCopiesAreIndependent(t *testing.T) {
	gpu, err := backend.NewGPU(backend.NewHostDevice(), backend.KernelSource)
	require.NoError(t, err)

	v := NewInt(1)
	implicit := v.WithImplicitCast(true)
	bound := implicit.To(gpu)

	require.False(t, v.ImplicitCast())
	require.Nil(t, v.Backend())
	require.True(t, implicit.ImplicitCast())
	require.Nil(t, implicit.Backend())
	require.True(t, bound.ImplicitCast())
	require.Same(t, gpu, bound.Backend())
	require.Equal(t, "gpu", bound.BackendName())
	require.Nil(t, bound.To(nil).Backend())
}

func TestValueEquals(t *testing.T) {
	tests := []struct {
		a, b *Value
		want bool
	}{
		{NewInt(1), NewInt(1), true},
		{NewInt(1), NewInt(2), false},
		{NewInt(1), NewFloat(1), false},
		{NewFloat(1.5), NewFloat(1.5), true},
		{NewText("a"), NewText("a"), true},
		{NewText("a"), NewText("b"), false},
		{NewInt(7), NewInt(7).WithImplicitCast(true), true},
		{NewFloat(float32(math.NaN())), NewFloat(float32(math.NaN())), true},
		{NewInt(1), nil, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.a.Equals(tt.b), "%s == %v", tt.a.Inspect(), tt.b)
	}
}
