package tag

import (
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/ardnew/tagmount/dom"
)

// Lifecycle events triggered on every component.
const (
	EventBeforeMount   = "before-mount"
	EventMount         = "mount"
	EventUpdate        = "update"
	EventBeforeUnmount = "before-unmount"
	EventUnmount       = "unmount"
)

// uid numbers components across every runtime of the process, starting at 1.
var uid atomic.Uint64 //nolint:gochecknoglobals

// Attr is a default root attribute of a component implementation. Value may
// contain expressions, evaluated against the component.
type Attr struct {
	Name  string `yaml:"name"  hcl:"name,label"`
	Value string `yaml:"value" hcl:"value"`
}

// Impl is a component implementation.
type Impl struct {
	// Name is the element name (or data-is value) that mounts the component.
	Name string
	// HTML is the body template.
	HTML string
	// Attrs are default attributes written onto the component root unless
	// the use site sets them.
	Attrs []Attr
	// Fn initializes a new instance before its body is mounted. opts holds
	// the evaluated use-site attributes keyed by lower camel case name.
	Fn func(t *Tag, opts map[string]any) error
}

// Tag is a mounted component instance. It is the scope of the expressions
// in its body.
type Tag struct {
	Observable

	rt     *Runtime
	id     uint64
	impl   *Impl
	root   *dom.Node
	tail   *dom.Node
	parent *Tag
	scope  Scope

	opts      map[string]any
	vars      map[string]any
	accessors map[string]Accessor
	refs      *Registry[any]
	tags      *Registry[*Tag]

	instAttrs   []*binding
	implAttrs   []*binding
	expressions []Expression
	mounted     bool
}

var _ Scope = (*Tag)(nil)

type tagDesc struct {
	impl      *Impl
	inst      []*attrDesc
	implAttrs []*attrDesc
	virtual   bool
}

func (d *tagDesc) mount(rt *Runtime, node *dom.Node, scope Scope) (Expression, error) {
	t, err := newTag(rt, d, node, scope, nil)
	if err != nil {
		return nil, err
	}

	return &componentExpr{tag: t}, nil
}

func (*tagDesc) structural() bool { return true }

func (d *tagDesc) describe() Descriptor {
	out := Descriptor{Kind: "component", Name: d.impl.Name}
	for _, a := range d.inst {
		out.Attrs = append(out.Attrs, a.describe())
	}

	return out
}

// componentExpr is a nested component seen as an expression of the
// enclosing block.
type componentExpr struct {
	tag *Tag
}

func (e *componentExpr) Update() error { return e.tag.Update() }

func (e *componentExpr) Unmount() { e.tag.Unmount(false) }

// newTag constructs and mounts a component on node. scope is the scope of the
// use site, or nil for a component mounted directly through the runtime, in
// which case opts seeds the component options.
func newTag(rt *Runtime, d *tagDesc, node *dom.Node, scope Scope, opts map[string]any) (*Tag, error) {
	if prev := rt.owners[node]; prev != nil {
		prev.Unmount(true)
	}

	if dom.IsText(node) && node.Parent == nil {
		return nil, ErrDetached.With(slog.String("tag", d.impl.Name))
	}

	t := &Tag{
		rt:        rt,
		id:        uid.Add(1),
		impl:      d.impl,
		root:      node,
		scope:     scope,
		opts:      maps.Clone(opts),
		vars:      make(map[string]any),
		accessors: make(map[string]Accessor),
		refs:      NewRegistry[any](),
		tags:      NewRegistry[*Tag](),
	}

	if t.opts == nil {
		t.opts = make(map[string]any)
	}

	if dom.IsText(node) {
		t.tail = rt.tree.CreateText("")
		rt.tree.InsertBefore(node.Parent, t.tail, node.NextSibling)
	}

	rt.owners[node] = t

	if scope != nil {
		t.parent = scope.Owner()
	}

	if t.parent != nil {
		t.parent.tags.Add(t.impl.Name, t)
	}

	rt.instances = append(rt.instances, t)

	if err := t.construct(d); err != nil {
		t.discard()

		return nil, ErrConstruct.Wrap(err).With(
			slog.String("tag", t.impl.Name),
			slog.Uint64("id", t.id),
		)
	}

	t.mounted = true

	if t.parent == nil || t.parent.mounted {
		t.Trigger(EventMount)
	} else {
		t.parent.One(EventMount, func(...any) {
			if t.mounted {
				t.Trigger(EventMount)
			}
		})
	}

	rt.logger.Trace("tag mounted",
		slog.String("tag", t.impl.Name),
		slog.Uint64("id", t.id),
	)

	return t, nil
}

func (t *Tag) construct(d *tagDesc) error {
	rt := t.rt

	use := t.scope
	if use == nil {
		use = newRootScope(t.opts)
	}

	for _, a := range d.inst {
		b := a.bind(rt, t.root, use, t)
		t.instAttrs = append(t.instAttrs, b)

		if err := b.Update(); err != nil {
			return err
		}

		t.opts[a.camel] = b.val
	}

	if t.impl.Fn != nil {
		if err := t.impl.Fn(t, t.opts); err != nil {
			return err
		}
	}

	t.Trigger(EventBeforeMount)

	for _, a := range d.implAttrs {
		b := a.bind(rt, t.root, t, t.root)
		t.implAttrs = append(t.implAttrs, b)

		if err := b.Update(); err != nil {
			return err
		}

		if !b.dynamic() && dom.IsElement(t.root) {
			rt.tree.SetAttr(t.root, a.name, a.raw)
		}
	}

	plan, err := rt.plan(t.impl)
	if err != nil {
		return err
	}

	body, err := rt.mount(plan, t)
	if err != nil {
		return err
	}

	if t.tail != nil {
		rt.tree.InsertBefore(t.tail.Parent, body.root, t.tail)
	} else {
		rt.tree.InsertBefore(t.root, body.root, nil)
	}

	t.expressions = make([]Expression, 0, len(t.implAttrs)+len(body.expressions))
	for _, b := range t.implAttrs {
		t.expressions = append(t.expressions, b)
	}

	t.expressions = append(t.expressions, body.expressions...)

	return nil
}

// discard releases a component whose construction failed.
func (t *Tag) discard() {
	for _, b := range slices.Concat(t.instAttrs, t.implAttrs) {
		b.Unmount()
	}

	t.release()
	t.forget()

	if t.tail != nil {
		t.rt.tree.RemoveChild(t.tail.Parent, t.tail)
	}
}

// release removes t from the registries of its runtime and parent.
func (t *Tag) release() {
	t.rt.instances = slices.DeleteFunc(t.rt.instances, func(x *Tag) bool { return x == t })

	if t.parent != nil {
		t.parent.tags.Remove(t.impl.Name, t)
	}
}

// forget clears the back-reference from the root node to t.
func (t *Tag) forget() {
	if t.rt.owners[t.root] == t {
		delete(t.rt.owners, t.root)
	}
}

// Update re-evaluates the use-site attributes into the options, triggers
// the update event, and updates every expression of the component.
//
// A component mounted directly through the runtime re-reads its literal
// attributes from its root element first.
func (t *Tag) Update() error {
	if !t.mounted {
		return nil
	}

	for _, b := range t.instAttrs {
		if t.scope == nil && !b.dynamic() {
			if v, ok := t.rt.tree.Attr(t.root, b.name); ok {
				b.val = v
			}
		}

		if err := b.Update(); err != nil {
			return err
		}

		t.opts[b.camel] = b.val
	}

	t.Trigger(EventUpdate)

	for _, e := range t.expressions {
		if err := e.Update(); err != nil {
			return err
		}
	}

	return nil
}

// UpdateWith assigns data to the component variables and updates it.
func (t *Tag) UpdateWith(data map[string]any) error {
	for name, v := range data {
		t.Set(name, v)
	}

	return t.Update()
}

// Unmount tears the component down: expressions are unmounted, the body is
// removed, and the root element is detached unless keepRoot is set. The
// use-site attributes are restored to their template values.
//
// Unmounting a component that is not mounted does nothing.
func (t *Tag) Unmount(keepRoot bool) {
	if !t.mounted {
		return
	}

	rt, tree := t.rt, t.rt.tree

	t.Trigger(EventBeforeUnmount)
	t.release()

	for _, e := range t.expressions {
		if u, ok := e.(Unmounter); ok {
			u.Unmount()
		}
	}

	t.clear()

	if !keepRoot {
		tree.RemoveChild(t.root.Parent, t.root)
	}

	for _, b := range t.instAttrs {
		b.Unmount()

		if dom.IsElement(t.root) {
			tree.SetAttr(t.root, b.name, b.raw)
		}
	}

	if dom.IsElement(t.root) {
		for _, b := range t.implAttrs {
			tree.RemoveAttr(t.root, b.name)
		}
	}

	t.Trigger(EventUnmount)
	t.Off("*")
	t.mounted = false
	t.forget()

	rt.logger.Trace("tag unmounted",
		slog.String("tag", t.impl.Name),
		slog.Uint64("id", t.id),
		slog.Bool("keep_root", keepRoot),
	)
}

// clear removes the body of t. A virtual host also loses its tail marker.
func (t *Tag) clear() {
	tree := t.rt.tree

	if t.tail == nil {
		for c := t.root.FirstChild; c != nil; c = t.root.FirstChild {
			tree.RemoveChild(t.root, c)
		}

		return
	}

	for n := t.root.NextSibling; n != nil && n != t.tail; {
		next := n.NextSibling
		tree.RemoveChild(n.Parent, n)
		n = next
	}

	tree.RemoveChild(t.tail.Parent, t.tail)
	t.tail = nil
}

// ID returns the process-unique identifier of t.
func (t *Tag) ID() uint64 { return t.id }

// Name returns the implementation name of t.
func (t *Tag) Name() string { return t.impl.Name }

// Root returns the host node of t. For a virtual host it is the head marker.
func (t *Tag) Root() *dom.Node { return t.root }

// Virtual reports whether t is mounted between marker nodes.
func (t *Tag) Virtual() bool { return dom.IsText(t.root) }

// Parent returns the component enclosing the use site of t, or nil.
func (t *Tag) Parent() *Tag { return t.parent }

// Opts returns the options of t.
func (t *Tag) Opts() map[string]any { return t.opts }

// Tags returns the registry of child components, keyed by name.
func (t *Tag) Tags() *Registry[*Tag] { return t.tags }

// IsMounted reports whether t is mounted.
func (t *Tag) IsMounted() bool { return t.mounted }

// Refs implements [Scope].
func (t *Tag) Refs() *Registry[any] { return t.refs }

// Owner implements [Scope].
func (t *Tag) Owner() *Tag { return t }

// Get returns the variable name of t.
func (t *Tag) Get(name string) (any, bool) {
	if a, ok := t.accessors[name]; ok && a.Get != nil {
		return a.Get(t), true
	}

	v, ok := t.vars[name]

	return v, ok
}

// Set implements [Scope]. A name defined by a mixin accessor is assigned
// through the accessor.
func (t *Tag) Set(name string, v any) {
	if a, ok := t.accessors[name]; ok {
		if a.Set != nil {
			a.Set(t, v)
		}

		return
	}

	t.vars[name] = v
}

func (t *Tag) has(name string) bool {
	_, ok := t.accessors[name]
	if !ok {
		_, ok = t.vars[name]
	}

	return ok
}

// Env implements [Scope]. It holds the variables of t along with opts,
// refs, tags, and the environment of the enclosing scope as parent.
func (t *Tag) Env() map[string]any {
	env := make(map[string]any, len(t.vars)+len(t.accessors)+4)

	maps.Copy(env, t.vars)

	for name, a := range t.accessors {
		if a.Get != nil {
			env[name] = a.Get(t)
		}
	}

	env["opts"] = t.opts
	env["refs"] = t.refs.Map()
	env["tags"] = t.tags.Map()
	env["parent"] = nil

	if t.scope != nil {
		env["parent"] = t.scope.Env()
	}

	return env
}

// LogValue implements [slog.LogValuer].
func (t *Tag) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tag", t.impl.Name),
		slog.Uint64("id", t.id),
		slog.Bool("mounted", t.mounted),
	)
}
