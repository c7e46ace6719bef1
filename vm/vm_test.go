package vm

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

func TestPushAndAdd(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(50)),
		bytecode.Add(object.NewInt(10), object.NewInt(5)),
	})
	require.Nil(t, m.Run(context.Background()))
	require.True(t, m.Halted())
	require.Equal(t, 1, m.PC())

	stack := m.Stack()
	require.Len(t, stack, 2)
	require.True(t, stack[0].Equals(object.NewInt(50)))
	require.True(t, stack[1].Equals(object.NewInt(15)))

	tos, ok := m.TOS()
	require.True(t, ok)
	require.Equal(t, int32(15), tos.Int())
}

func TestStepwise(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewFloat(1.5)),
		bytecode.Mult(object.NewFloat(2), object.NewFloat(3)),
	})
	require.Equal(t, -1, m.PC())
	require.Nil(t, m.Current())
	require.False(t, m.Halted())

	require.Nil(t, m.RunNext())
	require.Equal(t, 0, m.PC())
	require.Equal(t, op.Push, m.Current().Op())
	require.Len(t, m.Stack(), 1)

	require.Nil(t, m.RunNext())
	require.Equal(t, op.Mult, m.Current().Op())
	require.True(t, m.Halted())
	tos, ok := m.TOS()
	require.True(t, ok)
	require.Equal(t, float32(6), tos.Float())
}

func TestArithmeticDoesNotConsumeStack(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Push(object.NewInt(2)),
		bytecode.Sub(object.NewInt(10), object.NewInt(4)),
		bytecode.Div(object.NewInt(9), object.NewInt(2)),
	})
	require.Nil(t, m.Run(context.Background()))
	var got []int32
	for _, v := range m.Stack() {
		got = append(got, v.Int())
	}
	require.Equal(t, []int32{1, 2, 6, 4}, got)
}

func TestPop(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Push(object.NewInt(2)),
		bytecode.Pop(),
	})
	require.Nil(t, m.Run(context.Background()))
	stack := m.Stack()
	require.Len(t, stack, 1)
	require.Equal(t, int32(1), stack[0].Int())
}

func TestPopEmptyStack(t *testing.T) {
	m := New([]*bytecode.Chunk{bytecode.Pop()})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
	require.Contains(t, err.Error(), "pc 0")
}

func TestEmptyBuffer(t *testing.T) {
	m := New(nil)
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
	require.Contains(t, err.Error(), "no buffer available")
	require.False(t, m.Halted())
}

func TestRunNextExhausted(t *testing.T) {
	m := New([]*bytecode.Chunk{bytecode.Push(object.NewInt(1))})
	require.Nil(t, m.RunNext())
	err := m.RunNext()
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
	require.Contains(t, err.Error(), "no more elements")
}

func TestPushWithoutOperand(t *testing.T) {
	m := New([]*bytecode.Chunk{bytecode.NewChunk(op.Push, nil, nil)})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no value to push")
}

func TestBinaryOpMissingOperand(t *testing.T) {
	m := New([]*bytecode.Chunk{bytecode.NewChunk(op.Add, object.NewInt(1), nil)})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
}

func TestUnknownOpcode(t *testing.T) {
	m := New([]*bytecode.Chunk{bytecode.NewChunk(op.Code(42), nil, nil)})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown opcode")
}

func TestNilInstruction(t *testing.T) {
	m := New([]*bytecode.Chunk{nil})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
}

func TestIntegerDivisionByZero(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(7)),
		bytecode.Div(object.NewInt(1), object.NewInt(0)),
	})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrArithmetic))
	require.Contains(t, err.Error(), "pc 1")

	kind, ok := errz.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errz.ErrArithmeticKind, kind)
}

func TestFloatDivisionByZero(t *testing.T) {
	m := New([]*bytecode.Chunk{bytecode.Div(object.NewFloat(1), object.NewFloat(0))})
	require.Nil(t, m.Run(context.Background()))
	tos, ok := m.TOS()
	require.True(t, ok)
	require.True(t, math.IsInf(float64(tos.Float()), 1))
}

func TestImplicitCoercion(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Add(object.NewInt(2).WithImplicitCast(true), object.NewFloat(0.5).WithImplicitCast(true)),
	})
	require.Nil(t, m.Run(context.Background()))
	tos, _ := m.TOS()
	require.Equal(t, object.FLOAT, tos.DType())
	require.Equal(t, float32(2.5), tos.Float())
	require.False(t, tos.ImplicitCast())
}

func TestDtypeMismatch(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Add(object.NewInt(2), object.NewFloat(0.5)),
	})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
	// Results pushed before the failure remain visible.
	require.Len(t, m.Stack(), 1)
}

func TestFailurePoisonsMachine(t *testing.T) {
	m := New([]*bytecode.Chunk{
		bytecode.Pop(),
		bytecode.Push(object.NewInt(1)),
	})
	err := m.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, err, m.Err())
	require.Equal(t, err, m.RunNext())
	require.Equal(t, err, m.Run(context.Background()))
	require.Empty(t, m.Stack())
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := New([]*bytecode.Chunk{bytecode.Push(object.NewInt(1))})
	err := m.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, -1, m.PC())
}

func TestInstructionsCopied(t *testing.T) {
	chunks := []*bytecode.Chunk{bytecode.Push(object.NewInt(1))}
	m := New(chunks)
	chunks[0] = bytecode.Pop()
	require.Nil(t, m.Run(context.Background()))
	require.Len(t, m.Stack(), 1)
	require.Equal(t, 1, m.Len())
}

func TestBoundBackend(t *testing.T) {
	device := backend.NewHostDevice()
	gpu, err := backend.NewGPU(device, backend.KernelSource)
	require.Nil(t, err)

	chunks := bytecode.Bind([]*bytecode.Chunk{
		bytecode.Mult(object.NewInt(6), object.NewInt(7)),
		bytecode.Sub(object.NewFloat(1.5), object.NewFloat(0.25)),
	}, gpu)

	m := New(chunks, WithBackends(gpu))
	require.Nil(t, m.Run(context.Background()))
	stack := m.Stack()
	require.Equal(t, int32(42), stack[0].Int())
	require.Equal(t, float32(1.25), stack[1].Float())
	require.Equal(t, gpu.Name(), stack[0].BackendName())
	require.Equal(t, 0, device.LiveBuffers())
	require.Nil(t, m.Close())
	require.Equal(t, 0, gpu.CachedKernels())
}

type closeFailer struct {
	*backend.Software
	err error
}

func (c *closeFailer) Close() error { return c.err }

func TestCloseCollectsErrors(t *testing.T) {
	a := &closeFailer{backend.NewSoftware(), errors.New("a failed")}
	b := &closeFailer{backend.NewSoftware(), errors.New("b failed")}
	m := New(nil, WithBackends(a, b))
	err := m.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "a failed")
	require.Contains(t, err.Error(), "b failed")
	// Close is idempotent.
	require.Equal(t, err, m.Close())
}

func TestTraceLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Add(object.NewInt(1), object.NewInt(1)),
	}, WithLogger(logger))
	require.Nil(t, m.Run(context.Background()))

	out := buf.String()
	require.Equal(t, 2, strings.Count(out, `"message":"step"`))
	require.Contains(t, out, `"op":"ADD"`)
	require.Contains(t, out, `"message":"dispatch"`)
	require.Contains(t, out, m.ID().String())
}

func TestUniqueIDs(t *testing.T) {
	require.NotEqual(t, New(nil).ID(), New(nil).ID())
}
