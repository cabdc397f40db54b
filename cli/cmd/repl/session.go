package repl

import (
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tag"
	"github.com/ardnew/tagmount/tmpl"
)

// Session is a mounted component whose scope is edited by the REPL.
type Session struct {
	tag *tag.Tag
	out *dom.Node
	rec *dom.Recorder
}

// NewSession returns a Session for the component t, rendered by out. rec
// must be the tree of the runtime t was mounted by.
func NewSession(t *tag.Tag, out *dom.Node, rec *dom.Recorder) *Session {
	return &Session{tag: t, out: out, rec: rec}
}

// Result is the outcome of executing one line.
type Result struct {
	// Value is the value of the expression.
	Value any
	// Assigned names the variable assigned, if any. The fields below are
	// only set by an assignment.
	Assigned string
	HTML     string
	Stats    dom.Stats
}

var assignment = regexp.MustCompile(`^\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*=([^=].*)$`)

// Exec evaluates line against the component scope. A line of the form
// "name = expr" assigns the value of expr to the component variable name and
// updates the component.
func (s *Session) Exec(line string) (Result, error) {
	if !s.tag.IsMounted() {
		return Result{}, ErrUnmounted
	}

	name, code := "", line
	if m := assignment.FindStringSubmatch(line); m != nil {
		name, code = m[1], m[2]
	}

	v, err := tmpl.Evaluate("{"+code+"}", s.tag.Env())
	if err != nil {
		return Result{}, err
	}

	res := Result{Value: v}
	if name == "" {
		return res, nil
	}

	s.rec.Reset()

	if err := s.tag.UpdateWith(map[string]any{name: v}); err != nil {
		return res, err
	}

	res.Assigned = name
	res.HTML = s.Render()
	res.Stats = s.rec.Stats()

	return res, nil
}

// ReplaceOpts replaces the component options and updates it.
func (s *Session) ReplaceOpts(opts map[string]any) (dom.Stats, error) {
	if !s.tag.IsMounted() {
		return dom.Stats{}, ErrUnmounted
	}

	s.rec.Reset()

	o := s.tag.Opts()
	clear(o)
	maps.Copy(o, opts)

	err := s.tag.Update()

	return s.rec.Stats(), err
}

// Opts returns a copy of the component options.
func (s *Session) Opts() map[string]any { return maps.Clone(s.tag.Opts()) }

// Render returns the rendered HTML.
func (s *Session) Render() string { return dom.String(s.out) }

// Name returns the component name.
func (s *Session) Name() string { return s.tag.Name() }

// Mounted reports whether the component is still mounted.
func (s *Session) Mounted() bool { return s.tag.IsMounted() }

// Unmount unmounts the component and returns the mutations it caused.
func (s *Session) Unmount() dom.Stats {
	s.rec.Reset()
	s.tag.Unmount(false)

	return s.rec.Stats()
}

// Scope returns the top-level names of the component scope with their
// values, sorted by name.
func (s *Session) Scope() []Entry {
	env := s.tag.Env()
	out := make([]Entry, 0, len(env))

	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, Entry{Name: k, Value: env[k]})
	}

	return out
}

// Entry is one name of the component scope.
type Entry struct {
	Name  string
	Value any
}

// Names returns the names reachable below the dot-separated path in the
// component scope: map keys and exported struct fields. An empty path
// yields the top-level names.
func (s *Session) Names(path string) []string {
	var cur any = s.tag.Env()

	if path != "" {
		for _, seg := range strings.Split(path, ".") {
			next, ok := member(cur, seg)
			if !ok {
				return nil
			}

			cur = next
		}
	}

	return members(cur)
}

func member(v any, name string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		x, ok := m[name]

		return x, ok
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	f := rv.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}

	return f.Interface(), true
}

func members(v any) []string {
	if m, ok := v.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var names []string

	for i := range rv.NumField() {
		if f := rv.Type().Field(i); f.IsExported() {
			names = append(names, f.Name)
		}
	}

	return names
}
