package vm

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scalarvm/backend"
)

// Option is a configuration function for a Machine.
type Option func(*Machine)

// WithLogger sets the logger. Steps are logged at trace level and backend
// dispatches at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithObserver sets an observer for execution events. Observer methods are
// called synchronously, so implementations should be fast.
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observer = observer
	}
}

// WithBackends hands ownership of the given backends to the machine. They
// are closed by Machine.Close. Values bound to them must not be used after
// that.
func WithBackends(backends ...backend.Backend) Option {
	return func(m *Machine) {
		m.backends = append(m.backends, backends...)
	}
}
