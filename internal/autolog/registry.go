// Package autolog holds the registry of framework instrumentation
// integrations. Integrations register themselves at init time, the way
// database/sql drivers do; callers enable whatever happens to be linked
// into the binary.
package autolog

import (
	"context"
	"sort"
	"sync"
)

// Instrumenter enables automatic instrumentation for one framework.
type Instrumenter interface {
	// Framework returns the framework name, e.g. "openai".
	Framework() string

	// Enable turns the instrumentation on.
	Enable(ctx context.Context) error
}

// Registry is a thread-safe collection of instrumenters keyed by
// framework name.
type Registry struct {
	mu sync.RWMutex
	by map[string]Instrumenter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{by: make(map[string]Instrumenter)}
}

// Default is the registry integrations register into on import.
var Default = NewRegistry()

// Register adds an instrumenter, replacing any previous registration for
// the same framework.
func (r *Registry) Register(i Instrumenter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.by[i.Framework()] = i
}

// Get returns the instrumenter for a framework name.
func (r *Registry) Get(name string) (Instrumenter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.by[name]
	return i, ok
}

// Names returns the registered framework names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.by))
	for name := range r.by {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered instrumenters in name order.
func (r *Registry) All() []Instrumenter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.by))
	for name := range r.by {
		names = append(names, name)
	}
	sort.Strings(names)
	all := make([]Instrumenter, 0, len(names))
	for _, name := range names {
		all = append(all, r.by[name])
	}
	return all
}
