// Package scalarvm assembles and runs scalar arithmetic programs.
//
// The quickest way in is Eval, which takes a TOML program source:
//
//	result, err := scalarvm.Eval(ctx, source)
//
// Programs can be bound to a compute backend so that every arithmetic chunk
// dispatches to it:
//
//	gpu, _ := backend.NewGPU(backend.NewHostDevice(), backend.KernelSource)
//	result, err := scalarvm.Eval(ctx, source, scalarvm.WithBackend(gpu))
package scalarvm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scalarvm/asm"
	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/vm"
)

// Option configures an assembly or execution.
type Option func(*options)

type options struct {
	backends []backend.Backend
	bind     backend.Backend
	observer vm.Observer
	logger   *zerolog.Logger
	filename string
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) registry() *backend.Registry {
	backends := o.backends
	if o.bind != nil {
		backends = append(backends, o.bind)
	}
	return backend.NewRegistry(backends...)
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	if o.logger != nil {
		opts = append(opts, vm.WithLogger(*o.logger))
	}
	return opts
}

// WithBackends makes backends available to program sources by name. This
// option is additive. The caller keeps ownership of the backends.
func WithBackends(backends ...backend.Backend) Option {
	return func(o *options) {
		o.backends = append(o.backends, backends...)
	}
}

// WithBackend binds every operand of the program to b before running it.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.bind = b
	}
}

// WithObserver sets an observer for machine execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithLogger sets the logger used by the machine.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithFilename sets the filename reported in assembly errors.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// Assemble converts a TOML program source into chunks.
func Assemble(source string, opts ...Option) ([]*bytecode.Chunk, error) {
	o := collectOptions(opts...)
	chunks, err := asm.Parse(source, o.registry())
	if err != nil {
		if o.filename != "" {
			return nil, fmt.Errorf("%s: %w", o.filename, err)
		}
		return nil, err
	}
	return chunks, nil
}

// Run executes chunks on a new machine and returns the top of stack as a
// native Go value (int32, float32 or string), or nil if the stack ends up
// empty.
func Run(ctx context.Context, chunks []*bytecode.Chunk, opts ...Option) (any, error) {
	o := collectOptions(opts...)
	if o.bind != nil {
		chunks = bytecode.Bind(chunks, o.bind)
	}
	stack, err := vm.Run(ctx, chunks, o.vmOpts()...)
	if err != nil {
		return nil, err
	}
	if len(stack) == 0 {
		return nil, nil
	}
	return stack[len(stack)-1].Interface(), nil
}

// Eval is a convenience function that assembles and runs a TOML program.
// It is equivalent to Assemble() followed by Run().
func Eval(ctx context.Context, source string, opts ...Option) (any, error) {
	chunks, err := Assemble(source, opts...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, chunks, opts...)
}
