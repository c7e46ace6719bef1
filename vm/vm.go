// Package vm provides a stack Machine that executes a buffer of bytecode
// chunks.
//
// Execution is strictly forward and single pass: each chunk is executed
// once, in order, and there are no jumps. Arithmetic chunks carry both of
// their operands; they do not pop from the stack. Every PUSH and arithmetic
// chunk pushes exactly one value.
//
// A Machine is single-use. After a failure it is left in an undefined state
// and every further call returns the original error.
package vm

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Machine executes chunks against a value stack.
type Machine struct {
	id           uuid.UUID
	instructions []*bytecode.Chunk
	stack        []*object.Value
	pc           int // program counter, -1 before the first step
	current      *bytecode.Chunk
	err          error

	logger   zerolog.Logger
	observer Observer

	// backends are owned by the machine and closed by Close.
	backends  []backend.Backend
	closeOnce sync.Once
	closeErr  error
}

// New creates a new Machine over the given instructions. The instruction
// buffer is copied; the chunks themselves are shared.
func New(instructions []*bytecode.Chunk, options ...Option) *Machine {
	m := &Machine{
		id:           uuid.Must(uuid.NewV4()),
		instructions: append([]*bytecode.Chunk(nil), instructions...),
		pc:           -1,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	m.logger = m.logger.With().Str("machine", m.id.String()).Logger()
	return m
}

// ID returns the unique identifier of the machine, as used in log records.
func (m *Machine) ID() uuid.UUID { return m.id }

// PC returns the program counter: the index of the chunk executed last, or
// -1 if no chunk has been executed.
func (m *Machine) PC() int { return m.pc }

// Current returns the chunk executed last, or nil.
func (m *Machine) Current() *bytecode.Chunk { return m.current }

// Len returns the number of instructions.
func (m *Machine) Len() int { return len(m.instructions) }

// Halted returns true once every instruction has been executed.
func (m *Machine) Halted() bool {
	return len(m.instructions) > 0 && m.pc == len(m.instructions)-1
}

// Err returns the error that stopped the machine, if any.
func (m *Machine) Err() error { return m.err }

// Stack returns a copy of the value stack, bottom first.
func (m *Machine) Stack() []*object.Value {
	return append([]*object.Value(nil), m.stack...)
}

// TOS returns the top of stack value.
func (m *Machine) TOS() (*object.Value, bool) {
	if len(m.stack) == 0 {
		return nil, false
	}
	return m.stack[len(m.stack)-1], true
}

func (m *Machine) fail(err error) error {
	if e, ok := err.(*errz.Error); ok && m.pc >= 0 {
		err = e.AtPC(m.pc)
	}
	m.err = err
	m.logger.Debug().Err(err).Int("pc", m.pc).Msg("machine failed")
	return err
}

// RunNext executes the next instruction.
func (m *Machine) RunNext() error {
	if m.err != nil {
		return m.err
	}
	if m.pc+1 >= len(m.instructions) {
		return m.fail(errz.Preconditionf("no more elements in buffer"))
	}
	m.pc++
	m.current = m.instructions[m.pc]
	if m.current == nil {
		return m.fail(errz.Preconditionf("nil instruction"))
	}
	opcode := m.current.Op()
	if m.observer != nil {
		event := StepEvent{
			PC:         m.pc,
			Opcode:     opcode,
			OpcodeName: opcode.String(),
			StackDepth: len(m.stack),
		}
		if !m.observer.OnStep(event) {
			return m.fail(errz.Preconditionf("execution halted by observer"))
		}
	}
	m.logger.Trace().
		Int("pc", m.pc).
		Str("op", opcode.String()).
		Int("stack", len(m.stack)).
		Msg("step")

	var err error
	switch opcode {
	case op.Push:
		err = m.push()
	case op.Pop:
		err = m.pop()
	case op.Add, op.Sub, op.Mult, op.Div:
		err = m.binaryOp(op.GetInfo(opcode).BinaryOp)
	default:
		err = errz.Preconditionf("unknown opcode %d", opcode)
	}
	if err != nil {
		return m.fail(err)
	}
	return nil
}

// Run executes every remaining instruction. The context is checked between
// instructions; a blocking backend call is not interrupted.
func (m *Machine) Run(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	if len(m.instructions) == 0 {
		return m.fail(errz.Preconditionf("no buffer available"))
	}
	for m.pc < len(m.instructions)-1 {
		if err := ctx.Err(); err != nil {
			return m.fail(err)
		}
		if err := m.RunNext(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) push() error {
	value := m.current.Left()
	if value == nil {
		return errz.Preconditionf("no value to push")
	}
	m.stack = append(m.stack, value)
	return nil
}

func (m *Machine) pop() error {
	if len(m.stack) == 0 {
		return errz.Preconditionf("pop from empty stack")
	}
	m.stack[len(m.stack)-1] = nil
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

func (m *Machine) binaryOp(opType op.BinaryOpType) error {
	left, right := m.current.Left(), m.current.Right()
	if left == nil || right == nil {
		return errz.Preconditionf("%s requires two operands", m.current.Op())
	}
	m.logger.Debug().
		Str("backend", left.BackendName()).
		Str("op", opType.Name()).
		Str("left", left.Inspect()).
		Str("right", right.Inspect()).
		Msg("dispatch")
	result, err := object.BinaryOp(opType, left, right)
	if err != nil {
		return err
	}
	m.stack = append(m.stack, result)
	return nil
}

// Close closes the backends owned by the machine.
func (m *Machine) Close() error {
	m.closeOnce.Do(func() {
		var result *multierror.Error
		for _, b := range m.backends {
			if err := b.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		m.closeErr = result.ErrorOrNil()
	})
	return m.closeErr
}
