package tag

import (
	"iter"
	"slices"
)

// entry holds the values registered under one name. A name with a single
// value stores it in one; a second registration promotes the entry to many.
type entry[T comparable] struct {
	one  T
	many []T
}

func (e *entry[T]) values() []T {
	if e.many != nil {
		return e.many
	}

	return []T{e.one}
}

// Registry maps names to one value or to an ordered list of values.
//
// The first value registered under a name is stored as a single value. A
// second registration converts it to a list. Removing values converts a
// one-element list back to a single value and deletes the name once it has
// no values left.
//
// The zero value is ready to use.
type Registry[T comparable] struct {
	names   []string
	entries map[string]*entry[T]
}

// NewRegistry returns an empty [Registry].
func NewRegistry[T comparable]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]*entry[T])}
}

// Add registers v under name.
func (r *Registry[T]) Add(name string, v T) {
	if r.entries == nil {
		r.entries = make(map[string]*entry[T])
	}

	e, ok := r.entries[name]
	if !ok {
		r.entries[name] = &entry[T]{one: v}
		r.names = append(r.names, name)

		return
	}

	if e.many == nil {
		e.many = []T{e.one}

		var zero T
		e.one = zero
	}

	e.many = append(e.many, v)
}

// Remove unregisters the first occurrence of v under name and reports
// whether it was found.
func (r *Registry[T]) Remove(name string, v T) bool {
	e, ok := r.entries[name]
	if !ok {
		return false
	}

	if e.many == nil {
		if e.one != v {
			return false
		}

		r.drop(name)

		return true
	}

	i := slices.Index(e.many, v)
	if i < 0 {
		return false
	}

	e.many = slices.Delete(e.many, i, i+1)

	switch len(e.many) {
	case 0:
		r.drop(name)
	case 1:
		e.one, e.many = e.many[0], nil
	}

	return true
}

func (r *Registry[T]) drop(name string) {
	delete(r.entries, name)
	r.names = slices.DeleteFunc(r.names, func(n string) bool { return n == name })
}

// Get returns the value registered under name. When the name holds a list,
// the first value is returned.
func (r *Registry[T]) Get(name string) (T, bool) {
	e, ok := r.entries[name]
	if !ok {
		var zero T

		return zero, false
	}

	return e.values()[0], true
}

// List returns a copy of the values registered under name.
func (r *Registry[T]) List(name string) []T {
	e, ok := r.entries[name]
	if !ok {
		return nil
	}

	return slices.Clone(e.values())
}

// IsMultiple reports whether name holds a list of values.
func (r *Registry[T]) IsMultiple(name string) bool {
	e, ok := r.entries[name]

	return ok && e.many != nil
}

// Count returns the number of values registered under name.
func (r *Registry[T]) Count(name string) int {
	e, ok := r.entries[name]
	if !ok {
		return 0
	}

	return len(e.values())
}

// Len returns the number of registered names.
func (r *Registry[T]) Len() int { return len(r.names) }

// Names returns an iterator over the registered names in first-registration
// order.
func (r *Registry[T]) Names() iter.Seq[string] {
	return slices.Values(slices.Clone(r.names))
}

// Map returns the registry contents as expression data: a single value for
// a name with one value, and a slice for a name with many.
func (r *Registry[T]) Map() map[string]any {
	m := make(map[string]any, len(r.entries))

	for name, e := range r.entries {
		if e.many != nil {
			m[name] = slices.Clone(e.many)
		} else {
			m[name] = e.one
		}
	}

	return m
}
