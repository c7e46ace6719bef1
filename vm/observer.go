package vm

import (
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Observer is an interface for observing machine execution. It can be used
// for tracing, stepping debuggers or instruction counting.
type Observer interface {
	// OnStep is called before each instruction executes. Returning false
	// halts execution with an error.
	OnStep(event StepEvent) bool
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// PC is the index of the instruction about to execute.
	PC int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// StackDepth is the depth of the value stack before the step.
	StackDepth int
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event StepEvent) bool

func (f ObserverFunc) OnStep(event StepEvent) bool {
	return f(event)
}
