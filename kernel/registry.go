package kernel

import (
	"fmt"
	"sort"
	"sync"
)

// LaunchFunc starts the engine process and messaging client for a kernel
// kind, returning a live Transport. The returned transport owns the process;
// closing it must terminate the engine.
type LaunchFunc func() (Transport, error)

type registration struct {
	spec   Spec
	launch LaunchFunc
}

// Registry maps kernel kind names to their specs and launchers. It is a
// constructed object with an explicit lifecycle — create one at process
// start and pass it by reference — rather than ambient package state.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds a kernel kind. Returns ErrKindExists when the name is taken
// and ErrEmptyKind when the spec has no name.
func (r *Registry) Register(spec Spec, launch LaunchFunc) error {
	if spec.Name == "" {
		return ErrEmptyKind
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, spec.Name)
	}
	r.entries[spec.Name] = registration{spec: spec, launch: launch}
	return nil
}

// Lookup returns the spec and launcher for a kind.
// Returns ErrKindUnknown when the kind is not registered.
func (r *Registry) Lookup(kind string) (Spec, LaunchFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.entries[kind]
	if !exists {
		return Spec{}, nil, fmt.Errorf("%w: %s", ErrKindUnknown, kind)
	}
	return reg.spec, reg.launch, nil
}

// List returns the specs of all registered kinds, sorted by name.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.entries))
	for _, reg := range r.entries {
		specs = append(specs, reg.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
