package bytecode

import (
	"strings"

	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Chunk is a single instruction and its embedded operands. Operand presence
// is not validated here; the machine validates it on execution.
type Chunk struct {
	op    op.Code
	left  *object.Value
	right *object.Value
}

// NewChunk returns a chunk with the given opcode and operands. Either
// operand may be nil.
func NewChunk(code op.Code, left, right *object.Value) *Chunk {
	return &Chunk{op: code, left: left, right: right}
}

// Push returns a PUSH chunk for the given value.
func Push(value *object.Value) *Chunk {
	return NewChunk(op.Push, value, nil)
}

// Pop returns a POP chunk.
func Pop() *Chunk {
	return NewChunk(op.Pop, nil, nil)
}

func Add(left, right *object.Value) *Chunk {
	return NewChunk(op.Add, left, right)
}

func Sub(left, right *object.Value) *Chunk {
	return NewChunk(op.Sub, left, right)
}

func Mult(left, right *object.Value) *Chunk {
	return NewChunk(op.Mult, left, right)
}

func Div(left, right *object.Value) *Chunk {
	return NewChunk(op.Div, left, right)
}

// Op returns the opcode.
func (c *Chunk) Op() op.Code { return c.op }

// Left returns the left operand, or nil.
func (c *Chunk) Left() *object.Value { return c.left }

// Right returns the right operand, or nil.
func (c *Chunk) Right() *object.Value { return c.right }

// OperandCount returns the number of operands present.
func (c *Chunk) OperandCount() int {
	n := 0
	if c.left != nil {
		n++
	}
	if c.right != nil {
		n++
	}
	return n
}

// WellFormed reports whether the operands present match what the opcode
// carries.
func (c *Chunk) WellFormed() bool {
	info := op.GetInfo(c.op)
	if info.Name == "" {
		return false
	}
	switch info.OperandCount {
	case 0:
		return c.left == nil && c.right == nil
	case 1:
		return c.left != nil && c.right == nil
	default:
		return c.left != nil && c.right != nil
	}
}

// Equals reports whether both chunks have the same opcode and equal
// operands, including the operands' implicit-cast flags.
func (c *Chunk) Equals(other *Chunk) bool {
	if other == nil || c.op != other.op {
		return false
	}
	return operandEquals(c.left, other.left) && operandEquals(c.right, other.right)
}

func operandEquals(a, b *object.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b) && a.ImplicitCast() == b.ImplicitCast()
}

// String returns a one-line representation such as ADD int(10) int(5).
func (c *Chunk) String() string {
	var sb strings.Builder
	sb.WriteString(c.op.String())
	for _, v := range []*object.Value{c.left, c.right} {
		if v == nil {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(v.Inspect())
	}
	return sb.String()
}

// Bind returns a copy of the chunks with every operand bound to the given
// backend. The input chunks are not modified.
func Bind(chunks []*Chunk, b backend.Backend) []*Chunk {
	out := make([]*Chunk, len(chunks))
	for i, c := range chunks {
		cp := &Chunk{op: c.op}
		if c.left != nil {
			cp.left = c.left.To(b)
		}
		if c.right != nil {
			cp.right = c.right.To(b)
		}
		out[i] = cp
	}
	return out
}
