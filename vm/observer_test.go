package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// recordingObserver is a test observer that records events.
type recordingObserver struct {
	steps []StepEvent
	limit int
}

func (o *recordingObserver) OnStep(event StepEvent) bool {
	o.steps = append(o.steps, event)
	return o.limit == 0 || len(o.steps) < o.limit
}

func TestObserverOnStep(t *testing.T) {
	observer := &recordingObserver{}
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Push(object.NewInt(2)),
		bytecode.Pop(),
	}, WithObserver(observer))
	require.Nil(t, m.Run(context.Background()))

	require.Equal(t, []StepEvent{
		{PC: 0, Opcode: op.Push, OpcodeName: "PUSH", StackDepth: 0},
		{PC: 1, Opcode: op.Push, OpcodeName: "PUSH", StackDepth: 1},
		{PC: 2, Opcode: op.Pop, OpcodeName: "POP", StackDepth: 2},
	}, observer.steps)
}

func TestObserverHalts(t *testing.T) {
	observer := &recordingObserver{limit: 2}
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Push(object.NewInt(2)),
		bytecode.Push(object.NewInt(3)),
	}, WithObserver(observer))
	err := m.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrPrecondition))
	require.Contains(t, err.Error(), "halted by observer")
	// The halting step does not execute.
	require.Len(t, m.Stack(), 1)
}

func TestObserverFunc(t *testing.T) {
	count := 0
	m := New([]*bytecode.Chunk{
		bytecode.Push(object.NewInt(1)),
		bytecode.Add(object.NewInt(1), object.NewInt(1)),
	}, WithObserver(ObserverFunc(func(StepEvent) bool {
		count++
		return true
	})))
	require.Nil(t, m.Run(context.Background()))
	require.Equal(t, 2, count)
}
