package asm

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Format renders chunks as a TOML program that Parse accepts. Operand
// backends are written by name, so parsing the output needs a registry with
// the same names.
func Format(chunks []*bytecode.Chunk) ([]byte, error) {
	src := Source{Instructions: make([]Instruction, 0, len(chunks))}
	for i, chunk := range chunks {
		if chunk == nil || !chunk.WellFormed() {
			return nil, errz.Preconditionf("instruction %d is malformed", i)
		}
		src.Instructions = append(src.Instructions, Instruction{
			Op:    opName(chunk.Op()),
			Left:  formatOperand(chunk.Left()),
			Right: formatOperand(chunk.Right()),
		})
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func opName(code op.Code) string {
	return strings.ToLower(code.String())
}

func formatOperand(v *object.Value) *Operand {
	if v == nil {
		return nil
	}
	o := &Operand{
		Type:         v.DType().String(),
		ImplicitCast: v.ImplicitCast(),
	}
	switch v.DType() {
	case object.INT:
		o.Value = int64(v.Int())
	case object.FLOAT:
		// Widen through the shortest float32 text so 0.1 is written as 0.1.
		f, _ := strconv.ParseFloat(v.String(), 64)
		o.Value = f
	default:
		o.Value = v.Text()
	}
	if v.Backend() != nil {
		o.Backend = v.BackendName()
	}
	return o
}
