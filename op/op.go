// Package op defines opcodes used by the scalarvm bytecode and stack machine.
package op

// Code is an opcode that indicates an operation to execute. The numeric value
// is the opcode byte used by the binary chunk encoding.
type Code uint8

const (
	Invalid Code = 0

	// Stack
	Push Code = 1
	Pop  Code = 2

	// Arithmetic
	Add  Code = 3
	Sub  Code = 4
	Mult Code = 5
	Div  Code = 6
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint8

const (
	Addition       BinaryOpType = 0
	Subtraction    BinaryOpType = 1
	Multiplication BinaryOpType = 2
	Division       BinaryOpType = 3
)

// BinaryOps lists every binary operation in ordinal order.
var BinaryOps = []BinaryOpType{Addition, Subtraction, Multiplication, Division}

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Addition:
		return "+"
	case Subtraction:
		return "-"
	case Multiplication:
		return "*"
	case Division:
		return "/"
	default:
		return ""
	}
}

// Name returns the lowercase name of the operation as used by native symbols
// and kernel functions, e.g. "add" or "div".
func (bop BinaryOpType) Name() string {
	switch bop {
	case Addition:
		return "add"
	case Subtraction:
		return "sub"
	case Multiplication:
		return "mul"
	case Division:
		return "div"
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	// OperandCount is the number of embedded operand values the opcode carries.
	OperandCount int
	// Binary is set for arithmetic opcodes.
	Binary bool
	// BinaryOp is the arithmetic operation performed, if Binary is set.
	BinaryOp BinaryOpType
}

var infos = make([]Info, 256)

func init() {
	ops := []Info{
		{Code: Push, Name: "PUSH", OperandCount: 1},
		{Code: Pop, Name: "POP", OperandCount: 0},
		{Code: Add, Name: "ADD", OperandCount: 2, Binary: true, BinaryOp: Addition},
		{Code: Sub, Name: "SUB", OperandCount: 2, Binary: true, BinaryOp: Subtraction},
		{Code: Mult, Name: "MULT", OperandCount: 2, Binary: true, BinaryOp: Multiplication},
		{Code: Div, Name: "DIV", OperandCount: 2, Binary: true, BinaryOp: Division},
	}
	for _, o := range ops {
		infos[o.Code] = o
	}
}

// GetInfo returns information about the given opcode. The Name of an unknown
// opcode is empty.
func GetInfo(op Code) Info {
	return infos[op]
}

// IsValid reports whether the opcode is a known instruction.
func (c Code) IsValid() bool {
	return infos[c].Name != ""
}

// String returns the opcode name, e.g. "PUSH".
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return "INVALID"
}
