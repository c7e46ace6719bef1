package backend

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/scalarvm/errz"
)

// Registry holds named backend instances so that programs can refer to a
// backend by name. A software backend is always registered as "software".
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns a registry containing the given backends, each
// registered under its Name.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: map[string]Backend{"software": NewSoftware()}}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

// Register adds or replaces the backend registered under name.
func (r *Registry) Register(name string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = b
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Lookup is like Get but returns a precondition error for unknown names.
func (r *Registry) Lookup(name string) (Backend, error) {
	if b, ok := r.Get(name); ok {
		return b, nil
	}
	return nil, errz.Preconditionf("backend %q is not registered", name)
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered backend and returns all failures.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result *multierror.Error
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.backends[name].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
