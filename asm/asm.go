// Package asm assembles TOML program sources into bytecode chunks.
//
// A program is a list of instruction tables:
//
//	[[instruction]]
//	op = "push"
//	left = { type = "int", value = 50 }
//
//	[[instruction]]
//	op = "add"
//	left  = { type = "int", value = 10, implicit_cast = true, backend = "gpu" }
//	right = { type = "int", value = 5 }
//
// Operand backends are resolved by name through a backend.Registry. An
// operand without a backend is left unbound and runs on the software
// backend.
package asm

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Source is the decoded form of a TOML program.
type Source struct {
	Instructions []Instruction `toml:"instruction"`
}

// Instruction is a single [[instruction]] table.
type Instruction struct {
	Op    string   `toml:"op"`
	Left  *Operand `toml:"left,omitempty"`
	Right *Operand `toml:"right,omitempty"`
}

// Operand describes one embedded value. Type may be omitted, in which case
// it is inferred from the TOML value.
type Operand struct {
	Type         string `toml:"type,omitempty"`
	Value        any    `toml:"value"`
	ImplicitCast bool   `toml:"implicit_cast,omitempty"`
	Backend      string `toml:"backend,omitempty"`
}

// Error describes a problem with a single instruction.
type Error struct {
	Index int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("instruction %d: %s", e.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ParseOp parses an instruction name such as "push" or "mult". Matching is
// case-insensitive and "mul" is accepted for MULT.
func ParseOp(name string) (op.Code, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "MUL" {
		name = "MULT"
	}
	for code := op.Push; code <= op.Div; code++ {
		if code.String() == name {
			return code, nil
		}
	}
	return op.Invalid, fmt.Errorf("unknown op %q", name)
}

// Parse assembles a TOML program. If registry is nil only the software
// backend can be named.
func Parse(source string, registry *backend.Registry) ([]*bytecode.Chunk, error) {
	var src Source
	md, err := toml.Decode(source, &src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse error: unknown key %q", undecoded[0].String())
	}
	return Assemble(src, registry)
}

// ParseFile reads and assembles the TOML program at path.
func ParseFile(path string, registry *backend.Registry) ([]*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chunks, err := Parse(string(data), registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chunks, nil
}

// Assemble converts decoded instructions to chunks.
func Assemble(src Source, registry *backend.Registry) ([]*bytecode.Chunk, error) {
	if registry == nil {
		registry = backend.NewRegistry()
	}
	chunks := make([]*bytecode.Chunk, 0, len(src.Instructions))
	for i, ins := range src.Instructions {
		chunk, err := assembleInstruction(ins, registry)
		if err != nil {
			return nil, &Error{Index: i, Err: err}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func assembleInstruction(ins Instruction, registry *backend.Registry) (*bytecode.Chunk, error) {
	code, err := ParseOp(ins.Op)
	if err != nil {
		return nil, err
	}
	left, err := assembleOperand(ins.Left, registry)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	right, err := assembleOperand(ins.Right, registry)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	chunk := bytecode.NewChunk(code, left, right)
	if !chunk.WellFormed() {
		return nil, fmt.Errorf("%s takes %d operand(s), %d given", code, op.GetInfo(code).OperandCount, chunk.OperandCount())
	}
	return chunk, nil
}

func assembleOperand(o *Operand, registry *backend.Registry) (*object.Value, error) {
	if o == nil {
		return nil, nil
	}
	if o.Value == nil {
		return nil, fmt.Errorf("missing value")
	}
	var value *object.Value
	var err error
	if o.Type == "" {
		value, err = object.FromGo(o.Value)
	} else {
		var dtype object.DType
		if dtype, err = object.ParseDType(o.Type); err != nil {
			return nil, err
		}
		value, err = object.FromGoAs(dtype, o.Value)
	}
	if err != nil {
		return nil, err
	}
	value = value.WithImplicitCast(o.ImplicitCast)
	if o.Backend != "" {
		b, err := registry.Lookup(o.Backend)
		if err != nil {
			return nil, err
		}
		value = value.To(b)
	}
	return value, nil
}
