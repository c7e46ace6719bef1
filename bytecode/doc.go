// Package bytecode provides the instruction chunks executed by the stack
// machine and their binary encoding.
//
// # Key Types
//
//   - [Chunk]: one opcode plus zero, one, or two embedded operand values
//   - [EncodeProgram], [DecodeProgram]: a chunk buffer in a CBOR file container
//
// # Immutability
//
// Chunks are immutable after construction. Operand values are themselves
// immutable, so chunks may be shared between machines.
//
// # Binary Encoding
//
// A chunk encodes as its opcode byte followed by the operands the opcode
// carries: PUSH one, POP none, and the arithmetic opcodes two.
//
//	chunk   := opcode:u8 [value] [value]
//	value   := dtype:u8 payload
//	payload := i32 LE | f32 LE | len:u32 LE utf8[len]
//
// The low bits of the dtype byte hold the dtype ordinal and bit 0x80 holds
// the implicit-cast flag. Backend bindings are not encoded; decoded values are
// unbound. Use [Bind] to move a decoded buffer to a backend.
//
// Example:
//
//	chunk := bytecode.Add(object.NewInt(10), object.NewInt(5))
//	data, err := bytecode.Serialize(chunk)
//	if err != nil {
//	    return err
//	}
//	decoded, err := bytecode.Deserialize(data)
package bytecode
