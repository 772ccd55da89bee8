// Package variant holds the plumbing shared by named, parameterised
// implementations such as signal providers and risk policies: a
// name -> constructor registry, parameter decoding over defaults,
// struct validation and JSON schema export.
package variant

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// Constructor builds a T from a raw parameter map.
type Constructor[T any] func(params map[string]any) (T, error)

type entry[T any] struct {
	constructor Constructor[T]
	schema      func() (string, error)
}

// Registry maps variant names to constructors.
type Registry[T any] struct {
	kind    string
	entries map[string]entry[T]
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry. kind is used in error messages
// ("strategy", "risk policy").
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]entry[T]),
		mu:      sync.RWMutex{},
	}
}

// Register adds a constructor. schema may be nil when the variant has no
// published parameter schema.
func (r *Registry[T]) Register(name string, constructor Constructor[T], schema func() (string, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return errors.Newf(errors.ErrCodeDuplicateVariant, "%s %q already registered", r.kind, name)
	}

	r.entries[name] = entry[T]{constructor: constructor, schema: schema}

	return nil
}

// New builds the named variant from params.
func (r *Registry[T]) New(name string, params map[string]any) (T, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		var zero T

		return zero, errors.Newf(errors.ErrCodeUnknownVariant, "unknown %s %q, available: %v", r.kind, name, r.Names())
	}

	return e.constructor(params)
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.entries[name]

	return exists
}

// Names lists registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Remove deletes a registered variant.
func (r *Registry[T]) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return errors.Newf(errors.ErrCodeUnknownVariant, "unknown %s %q", r.kind, name)
	}

	delete(r.entries, name)

	return nil
}

// Schema returns the JSON schema of the named variant's parameters.
func (r *Registry[T]) Schema(name string) (string, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return "", errors.Newf(errors.ErrCodeUnknownVariant, "unknown %s %q", r.kind, name)
	}

	if e.schema == nil {
		return "{}", nil
	}

	return e.schema()
}
