package tag

import (
	"log/slog"
	"maps"
	"slices"
)

// Method is a mixin function bound to the component it is applied to.
type Method func(t *Tag, args ...any) any

// Accessor is a computed component variable.
type Accessor struct {
	Get func(t *Tag) any
	Set func(t *Tag, v any)
}

// Mixin is a bundle of variables, methods, and accessors shared by
// components.
type Mixin struct {
	// Name registers the mixin with [Runtime.RegisterMixin].
	Name string
	// Parents are applied before the mixin itself, root-first.
	Parents []*Mixin
	// Props are copied onto the component. A [Method] value is bound.
	Props map[string]any
	// Methods are bound to the component and stored as
	// func(args ...any) any variables.
	Methods map[string]Method
	// Accessors are installed unless the component already defines the
	// name, in which case the accessor's current value is copied instead.
	Accessors map[string]Accessor
	// Init runs once after the mixin is applied. A mixin without Init uses
	// the nearest Init of its parents.
	Init func(t *Tag)
}

// chain returns the ancestors of m root-first followed by m. A mixin
// reachable through several parents appears once.
func (m *Mixin) chain() []*Mixin {
	var (
		out  []*Mixin
		seen = make(map[*Mixin]bool)
		walk func(*Mixin)
	)

	walk = func(x *Mixin) {
		if x == nil || seen[x] {
			return
		}

		seen[x] = true

		for _, p := range x.Parents {
			walk(p)
		}

		out = append(out, x)
	}

	walk(m)

	return out
}

// Mixin applies each mixin to t in order and returns t.
func (t *Tag) Mixin(mixins ...*Mixin) *Tag {
	for _, m := range mixins {
		if m != nil {
			t.mixin(m)
		}
	}

	return t
}

// MixinNamed applies the mixins registered on the runtime under names.
func (t *Tag) MixinNamed(names ...string) error {
	for _, name := range names {
		m, ok := t.rt.mixins[name]
		if !ok {
			return ErrUnknownMixin.With(slog.String("mixin", name))
		}

		t.mixin(m)
	}

	return nil
}

func (t *Tag) mixin(m *Mixin) {
	chain := m.chain()

	for _, x := range chain {
		for _, name := range slices.Sorted(maps.Keys(x.Props)) {
			if name == "init" {
				continue
			}

			v := x.Props[name]
			if fn, ok := v.(Method); ok {
				v = t.bind(fn)
			}

			t.Set(name, v)
		}

		for _, name := range slices.Sorted(maps.Keys(x.Methods)) {
			if name != "init" {
				t.Set(name, t.bind(x.Methods[name]))
			}
		}

		for _, name := range slices.Sorted(maps.Keys(x.Accessors)) {
			a := x.Accessors[name]

			switch {
			case name == "init":
			case !t.has(name):
				t.accessors[name] = a
			case a.Get != nil:
				t.Set(name, a.Get(t))
			}
		}
	}

	for _, x := range slices.Backward(chain) {
		if x.Init != nil {
			x.Init(t)

			break
		}
	}
}

func (t *Tag) bind(fn Method) func(args ...any) any {
	return func(args ...any) any { return fn(t, args...) }
}
