package tag

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/log"
	"github.com/ardnew/tagmount/pkg"
)

// Runtime holds registered component implementations and mixins, the
// compiled plans of their templates, and the live component instances.
//
// A Runtime is not safe for concurrent use.
type Runtime struct {
	tree   dom.Tree
	logger log.Logger

	impls     map[string]*Impl
	templates map[string]*dom.Node
	mixins    map[string]*Mixin
	plans     map[string]*Plan

	instances []*Tag
	owners    map[*dom.Node]*Tag
}

// Option configures a [Runtime].
type Option = pkg.Option[*Runtime]

// WithTree sets the tree performing render tree mutations. The default is
// [dom.HTML].
func WithTree(tree dom.Tree) Option {
	return func(rt *Runtime) *Runtime {
		if tree != nil {
			rt.tree = tree
		}

		return rt
	}
}

// WithLogger sets the logger receiving lifecycle trace messages.
func WithLogger(logger log.Logger) Option {
	return func(rt *Runtime) *Runtime {
		rt.logger = logger

		return rt
	}
}

// New returns an empty [Runtime].
func New(opts ...Option) *Runtime {
	return pkg.Apply(&Runtime{
		tree:      dom.HTML{},
		impls:     make(map[string]*Impl),
		templates: make(map[string]*dom.Node),
		mixins:    make(map[string]*Mixin),
		plans:     make(map[string]*Plan),
		owners:    make(map[*dom.Node]*Tag),
	}, opts...)
}

// Tree returns the tree performing render tree mutations.
func (rt *Runtime) Tree() dom.Tree { return rt.tree }

// Register adds impl, replacing any implementation of the same name.
// Names are case-insensitive.
func (rt *Runtime) Register(impl Impl) error {
	impl.Name = strings.ToLower(strings.TrimSpace(impl.Name))
	if impl.Name == "" {
		return ErrInvalidImpl.With(slog.String("reason", "empty name"))
	}

	body, err := dom.ParseString(impl.HTML)
	if err != nil {
		return ErrInvalidImpl.Wrap(err).With(slog.String("tag", impl.Name))
	}

	impl.Attrs = slices.Clone(impl.Attrs)

	rt.impls[impl.Name] = &impl
	rt.templates[impl.Name] = body

	// Element names resolve to components at compile time.
	clear(rt.plans)

	rt.logger.Debug("tag registered", slog.String("tag", impl.Name))

	return nil
}

// Impl returns the implementation registered under name.
func (rt *Runtime) Impl(name string) (*Impl, bool) {
	impl, ok := rt.impls[strings.ToLower(name)]

	return impl, ok
}

// Names returns the registered implementation names in sorted order.
func (rt *Runtime) Names() []string {
	return slices.Sorted(maps.Keys(rt.impls))
}

// RegisterMixin adds a named mixin.
func (rt *Runtime) RegisterMixin(m *Mixin) error {
	if m == nil || m.Name == "" {
		return ErrInvalidMixin.With(slog.String("reason", "empty name"))
	}

	rt.mixins[m.Name] = m

	return nil
}

// Mixin returns the mixin registered under name.
func (rt *Runtime) Mixin(name string) (*Mixin, bool) {
	m, ok := rt.mixins[name]

	return m, ok
}

func (rt *Runtime) implFor(n *dom.Node) (*Impl, bool) {
	impl, ok := rt.impls[tagName(n)]

	return impl, ok
}

// plan returns the compiled body of impl.
func (rt *Runtime) plan(impl *Impl) (*Plan, error) {
	if p, ok := rt.plans[impl.Name]; ok {
		return p, nil
	}

	p, err := rt.compile(dom.HTML{}.Clone(rt.templates[impl.Name]))
	if err != nil {
		return nil, err
	}

	rt.plans[impl.Name] = p

	return p, nil
}

// Plan returns the compiled body of the implementation registered under
// name.
func (rt *Runtime) Plan(name string) (*Plan, error) {
	impl, ok := rt.Impl(name)
	if !ok {
		return nil, ErrUnknownTag.With(slog.String("tag", name))
	}

	return rt.plan(impl)
}

// Compile compiles a copy of the template rooted at node.
func (rt *Runtime) Compile(node *dom.Node) (*Plan, error) {
	var t dom.HTML

	root := t.Clone(node)
	if !dom.IsFragment(root) {
		frag := t.CreateFragment()
		t.InsertBefore(frag, root, nil)
		root = frag
	}

	return rt.compile(root)
}

// Mount mounts the component registered under name on node. The attributes
// of node become the component options, over opts.
//
// A text node hosts a virtual component whose body is inserted after it.
func (rt *Runtime) Mount(node *dom.Node, name string, opts map[string]any) (*Tag, error) {
	impl, ok := rt.Impl(name)
	if !ok {
		return nil, ErrUnknownTag.With(slog.String("tag", name))
	}

	if node == nil {
		return nil, ErrDetached.With(slog.String("tag", name))
	}

	inst, err := parseAttributes(node.Attr, true)
	if err != nil {
		return nil, err
	}

	implAttrs, err := implAttributes(impl, inst)
	if err != nil {
		return nil, err
	}

	return newTag(rt, &tagDesc{
		impl:      impl,
		inst:      inst,
		implAttrs: implAttrs,
		virtual:   dom.IsText(node),
	}, node, nil, opts)
}

// MountAll mounts a component on every element below root whose name (or
// data-is attribute) names a registered implementation. Elements inside a
// matched element are left to the matched component.
func (rt *Runtime) MountAll(root *dom.Node, opts map[string]any) ([]*Tag, error) {
	var hosts []*dom.Node

	dom.Walk(root, func(n *dom.Node) bool {
		if !dom.IsElement(n) {
			return true
		}

		if _, ok := rt.implFor(n); ok {
			hosts = append(hosts, n)

			return false
		}

		return true
	})

	tags := make([]*Tag, 0, len(hosts))

	for _, n := range hosts {
		t, err := rt.Mount(n, tagName(n), opts)
		if err != nil {
			return tags, err
		}

		tags = append(tags, t)
	}

	return tags, nil
}

// Instances returns the live components in construction order.
func (rt *Runtime) Instances() []*Tag {
	return slices.Clone(rt.instances)
}

// Owner returns the component mounted on node, or nil.
func (rt *Runtime) Owner(node *dom.Node) *Tag {
	return rt.owners[node]
}

// Unmount unmounts every live root component.
func (rt *Runtime) Unmount() {
	for _, t := range slices.Backward(rt.Instances()) {
		if t.parent == nil {
			t.Unmount(false)
		}
	}
}
