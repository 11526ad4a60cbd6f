package provider

import (
	"github.com/rotisserie/eris"
)

// Registry maps provider names to adapters.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry creates a Registry holding adapters. A later adapter with a
// duplicate name replaces the earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	if _, exists := r.adapters[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.adapters[a.Name()] = a
}

// Get returns the named adapter.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Configured returns the names of adapters that have credentials.
func (r *Registry) Configured() []string {
	var out []string
	for _, name := range r.order {
		if r.adapters[name].Configured() {
			out = append(out, name)
		}
	}
	return out
}

// Resolve returns the adapters for names in order. An unknown name is a
// configuration error.
func (r *Registry) Resolve(names []string) ([]Adapter, error) {
	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, ok := r.adapters[name]
		if !ok {
			return nil, eris.Errorf("provider: unknown provider %q (registered: %v)", name, r.order)
		}
		out = append(out, a)
	}
	return out, nil
}
