package bytecode

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/object"
	"github.com/deepnoodle-ai/scalarvm/op"
)

const (
	implicitCastFlag = 0x80
	dtypeMask        = 0x7f

	// MaxTextLength bounds text operands on both encode and decode.
	MaxTextLength = 1 << 24
)

// Serialize encodes a chunk. The chunk's operands must match its opcode.
func Serialize(chunk *Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeChunk(&buf, chunk); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a single chunk. The input must contain exactly one
// encoded chunk.
func Deserialize(data []byte) (*Chunk, error) {
	r := &reader{data: data}
	chunk, err := r.readChunk()
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, errz.Decodingf("%d trailing bytes after chunk", r.remaining())
	}
	return chunk, nil
}

func encodeChunk(buf *bytes.Buffer, chunk *Chunk) error {
	if chunk == nil {
		return errz.Preconditionf("cannot serialize a nil chunk")
	}
	if !chunk.op.IsValid() {
		return errz.Preconditionf("cannot serialize invalid opcode %d", chunk.op)
	}
	if !chunk.WellFormed() {
		return errz.Preconditionf("cannot serialize %s with %d operands", chunk.op, chunk.OperandCount())
	}
	operands := []*object.Value{chunk.left, chunk.right}
	for _, v := range operands {
		if v != nil && v.DType() == object.TEXT && len(v.Text()) > MaxTextLength {
			return errz.Preconditionf("text operand of %d bytes exceeds limit %d", len(v.Text()), MaxTextLength)
		}
	}
	buf.WriteByte(byte(chunk.op))
	for _, v := range operands {
		if v != nil {
			encodeValue(buf, v)
		}
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, v *object.Value) {
	tag := byte(v.DType())
	if v.ImplicitCast() {
		tag |= implicitCastFlag
	}
	buf.WriteByte(tag)
	var word [4]byte
	switch v.DType() {
	case object.INT:
		binary.LittleEndian.PutUint32(word[:], uint32(v.Int()))
		buf.Write(word[:])
	case object.FLOAT:
		binary.LittleEndian.PutUint32(word[:], math.Float32bits(v.Float()))
		buf.Write(word[:])
	case object.TEXT:
		binary.LittleEndian.PutUint32(word[:], uint32(len(v.Text())))
		buf.Write(word[:])
		buf.WriteString(v.Text())
	}
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errz.Decodingf("unexpected EOF at offset %d", r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errz.Decodingf("unexpected EOF: need %d bytes at offset %d", n, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readWord reads a 4-byte little-endian value.
func (r *reader) readWord() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) readChunk() (*Chunk, error) {
	code, err := r.readByte()
	if err != nil {
		return nil, err
	}
	info := op.GetInfo(op.Code(code))
	if info.Name == "" {
		return nil, errz.Decodingf("unknown opcode %d at offset %d", code, r.pos-1)
	}
	chunk := &Chunk{op: op.Code(code)}
	if info.OperandCount >= 1 {
		if chunk.left, err = r.readValue(); err != nil {
			return nil, err
		}
	}
	if info.OperandCount >= 2 {
		if chunk.right, err = r.readValue(); err != nil {
			return nil, err
		}
	}
	return chunk, nil
}

func (r *reader) readValue() (*object.Value, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	implicit := tag&implicitCastFlag != 0
	var v *object.Value
	switch object.DType(tag & dtypeMask) {
	case object.INT:
		word, err := r.readWord()
		if err != nil {
			return nil, err
		}
		v = object.NewInt(int32(word))
	case object.FLOAT:
		word, err := r.readWord()
		if err != nil {
			return nil, err
		}
		v = object.NewFloat(math.Float32frombits(word))
	case object.TEXT:
		n, err := r.readWord()
		if err != nil {
			return nil, err
		}
		if n > MaxTextLength {
			return nil, errz.Decodingf("text length %d exceeds limit", n)
		}
		b, err := r.readBytes(int(n))
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, errz.Decodingf("invalid UTF-8 text at offset %d", r.pos-int(n))
		}
		v = object.NewText(string(b))
	default:
		return nil, errz.Decodingf("unknown dtype %d at offset %d", tag&dtypeMask, r.pos-1)
	}
	if implicit {
		v = v.WithImplicitCast(true)
	}
	return v, nil
}
