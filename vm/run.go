package vm

import (
	"context"

	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/object"
)

// Run the given chunks on a new Machine and return the final stack. Backends
// passed with WithBackends are closed before returning.
func Run(ctx context.Context, chunks []*bytecode.Chunk, options ...Option) ([]*object.Value, error) {
	machine := New(chunks, options...)
	defer machine.Close()
	if err := machine.Run(ctx); err != nil {
		return nil, err
	}
	return machine.Stack(), nil
}
