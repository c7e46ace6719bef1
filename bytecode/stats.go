package bytecode

import (
	"github.com/deepnoodle-ai/scalarvm/op"
)

// Stats contains statistics about a chunk buffer.
// This is useful for auditing programs before execution.
type Stats struct {
	// InstructionCount is the total number of chunks.
	InstructionCount int

	// OpCounts is the number of chunks per opcode.
	OpCounts map[op.Code]int

	// BackendCounts is the number of arithmetic chunks per backend name,
	// taken from the left operand.
	BackendCounts map[string]int

	// MaxStackDepth is the deepest the stack gets when the buffer runs to
	// completion.
	MaxStackDepth int

	// FinalStackDepth is the stack depth after the last chunk.
	FinalStackDepth int

	// UnderflowAt is the index of the first POP that would find the stack
	// empty, or -1.
	UnderflowAt int

	// Malformed is the number of chunks whose operands do not match their
	// opcode.
	Malformed int
}

// ComputeStats walks the buffer without executing any arithmetic. Stack
// depths assume every chunk succeeds.
func ComputeStats(chunks []*Chunk) Stats {
	stats := Stats{
		InstructionCount: len(chunks),
		OpCounts:         map[op.Code]int{},
		BackendCounts:    map[string]int{},
		UnderflowAt:      -1,
	}
	depth := 0
	for i, chunk := range chunks {
		if chunk == nil || !chunk.WellFormed() {
			stats.Malformed++
			continue
		}
		stats.OpCounts[chunk.Op()]++
		switch {
		case chunk.Op() == op.Pop:
			if depth == 0 {
				if stats.UnderflowAt < 0 {
					stats.UnderflowAt = i
				}
				continue
			}
			depth--
		case op.GetInfo(chunk.Op()).Binary:
			stats.BackendCounts[chunk.Left().BackendName()]++
			depth++
		default:
			depth++
		}
		if depth > stats.MaxStackDepth {
			stats.MaxStackDepth = depth
		}
	}
	stats.FinalStackDepth = depth
	return stats
}
