// Package dis supports analysis of scalarvm bytecode by disassembling it
// into a table of instructions.
package dis

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/internal/table"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Instruction represents a single chunk and its operands.
type Instruction struct {
	Index   int
	Name    string
	Opcode  op.Code
	Left    *object.Value
	Right   *object.Value
	Backend string
}

// Disassemble returns a parsed representation of the given chunks. Chunks
// whose operands do not match their opcode are reported as errors.
func Disassemble(chunks []*bytecode.Chunk) ([]Instruction, error) {
	instructions := make([]Instruction, 0, len(chunks))
	for i, chunk := range chunks {
		if chunk == nil {
			return nil, fmt.Errorf("instruction %d is nil", i)
		}
		if !chunk.WellFormed() {
			return nil, fmt.Errorf("instruction %d is malformed: %s", i, chunk)
		}
		instr := Instruction{
			Index:  i,
			Name:   chunk.Op().String(),
			Opcode: chunk.Op(),
			Left:   chunk.Left(),
			Right:  chunk.Right(),
		}
		if instr.Left != nil {
			instr.Backend = instr.Left.BackendName()
		}
		instructions = append(instructions, instr)
	}
	return instructions, nil
}

// Disassemble a serialized program.
func DisassembleProgram(data []byte) ([]Instruction, error) {
	chunks, err := bytecode.DecodeProgram(data)
	if err != nil {
		return nil, err
	}
	return Disassemble(chunks)
}

var (
	numberColor = color.New(color.FgYellow)
	textColor   = color.New(color.FgGreen)
	opColor     = color.New(color.Bold)
	infoColor   = color.New(color.FgHiCyan)
)

// formatValue renders an operand; a trailing "*" marks the implicit-cast
// flag.
func formatValue(v *object.Value) string {
	if v == nil {
		return ""
	}
	var s string
	if v.DType() == object.TEXT {
		text := v.Text()
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		s = textColor.Sprint(fmt.Sprintf("text(%q)", text))
	} else {
		s = numberColor.Sprint(v.Inspect())
	}
	if v.ImplicitCast() {
		s += "*"
	}
	return s
}

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		backend := ""
		if instr.Backend != "" {
			backend = infoColor.Sprint(instr.Backend)
		}
		lines = append(lines, []string{
			fmt.Sprintf("%d", instr.Index),
			opColor.Sprint(instr.Name),
			formatValue(instr.Left),
			formatValue(instr.Right),
			backend,
		})
	}
	table.NewTable(writer).
		WithHeader([]string{"INDEX", "OPCODE", "LEFT", "RIGHT", "BACKEND"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}
