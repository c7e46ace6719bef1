package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/deepnoodle-ai/scalarvm/errz"
)

const (
	// ProgramMagic identifies a scalarvm program file.
	ProgramMagic = "scalarvm"

	// ProgramVersion is the container version written by EncodeProgram.
	ProgramVersion = 1
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// programFile is the on-disk container. Each chunk is stored in its binary
// encoding as an opaque byte string.
type programFile struct {
	Magic   string   `cbor:"1,keyasint"`
	Version uint     `cbor:"2,keyasint"`
	Chunks  [][]byte `cbor:"3,keyasint"`
}

// EncodeProgram encodes a chunk buffer as a program file.
func EncodeProgram(chunks []*Chunk) ([]byte, error) {
	file := programFile{
		Magic:   ProgramMagic,
		Version: ProgramVersion,
		Chunks:  make([][]byte, len(chunks)),
	}
	for i, c := range chunks {
		data, err := Serialize(c)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		file.Chunks[i] = data
	}
	return cborEncMode.Marshal(file)
}

// DecodeProgram decodes a program file into a chunk buffer.
func DecodeProgram(data []byte) ([]*Chunk, error) {
	var file programFile
	if err := cbor.Unmarshal(data, &file); err != nil {
		return nil, errz.Decodingf("invalid program file").WithCause(err)
	}
	if file.Magic != ProgramMagic {
		return nil, errz.Decodingf("bad magic %q", file.Magic)
	}
	if file.Version != ProgramVersion {
		return nil, errz.Decodingf("unsupported program version %d", file.Version)
	}
	chunks := make([]*Chunk, len(file.Chunks))
	for i, data := range file.Chunks {
		c, err := Deserialize(data)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		chunks[i] = c
	}
	return chunks, nil
}
