package tag

import (
	"maps"
	"reflect"
)

// Scope is the data context expressions are evaluated against.
//
// A [Tag] is a scope. Each loop block gets an item scope layered over the
// scope enclosing the loop.
type Scope interface {
	// Env returns the variables visible to expressions.
	Env() map[string]any
	// Set assigns a variable in this scope.
	Set(name string, v any)
	// Refs returns the registry named references are added to.
	Refs() *Registry[any]
	// Owner returns the component owning this scope, or nil.
	Owner() *Tag
}

// itemScope overlays loop item variables on the scope enclosing the loop.
type itemScope struct {
	owner Scope
	vars  map[string]any
}

func newItemScope(owner Scope) *itemScope {
	return &itemScope{owner: owner, vars: make(map[string]any)}
}

func (s *itemScope) Env() map[string]any {
	base := s.owner.Env()
	env := make(map[string]any, len(base)+len(s.vars)+1)

	maps.Copy(env, base)
	env["parent"] = base
	maps.Copy(env, s.vars)

	return env
}

func (s *itemScope) Set(name string, v any) { s.vars[name] = v }

func (s *itemScope) Refs() *Registry[any] { return s.owner.Refs() }

func (s *itemScope) Owner() *Tag { return s.owner.Owner() }

// bind sets the loop variables for item at index pos. A loop without a key
// variable copies the item's fields into the scope instead.
func (s *itemScope) bind(key, posKey string, item any, pos int) {
	if key == "" {
		maps.Copy(s.vars, fields(item))

		return
	}

	s.vars[key] = item
	if posKey != "" {
		s.vars[posKey] = pos
	}
}

// rootScope is the scope of a component mounted without a parent.
type rootScope struct {
	vars map[string]any
	refs *Registry[any]
}

func newRootScope(vars map[string]any) *rootScope {
	return &rootScope{vars: maps.Clone(vars), refs: NewRegistry[any]()}
}

func (s *rootScope) Env() map[string]any {
	env := maps.Clone(s.vars)
	if env == nil {
		env = make(map[string]any)
	}

	env["refs"] = s.refs.Map()

	return env
}

func (s *rootScope) Set(name string, v any) {
	if s.vars == nil {
		s.vars = make(map[string]any)
	}

	s.vars[name] = v
}

func (s *rootScope) Refs() *Registry[any] { return s.refs }

func (*rootScope) Owner() *Tag { return nil }

// fields returns the string-keyed entries of a map item or the exported
// fields of a struct item. Other items have no fields.
func fields(item any) map[string]any {
	if m, ok := item.(map[string]any); ok {
		return m
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}

		out := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			out[it.Key().String()] = it.Value().Interface()
		}

		return out

	case reflect.Struct:
		t := rv.Type()
		out := make(map[string]any, t.NumField())

		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				out[f.Name] = rv.Field(i).Interface()
			}
		}

		return out
	}

	return nil
}

// identifiable reports whether item has a reference identity that survives
// re-evaluation of the loop collection.
func identifiable(item any) bool {
	rv := reflect.ValueOf(item)

	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice:
		return !rv.IsNil()
	}

	return false
}

// identical reports whether a and b share a reference identity.
func identical(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Pointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	return false
}

// indexFrom returns the index of the first element of list at or after from
// that is identical to item, or -1.
func indexFrom(list []any, item any, from int) int {
	for i := max(from, 0); i < len(list); i++ {
		if identical(list[i], item) {
			return i
		}
	}

	return -1
}

// same reports whether a re-evaluated expression value equals the previous
// one. Comparable values compare by value, reference values by identity.
func same(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	switch ta.Kind() {
	case reflect.Slice:
		return identical(a, b)
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}

	if !ta.Comparable() {
		return false
	}

	defer func() {
		if recover() != nil {
			eq = false
		}
	}()

	return a == b
}
