package tag

import (
	"log/slog"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tmpl"
)

type textDesc struct {
	raw string
}

func (d *textDesc) mount(rt *Runtime, node *dom.Node, scope Scope) (Expression, error) {
	e := &textExpr{tree: rt.tree, node: node, raw: d.raw, scope: scope}

	return e, e.Update()
}

func (*textDesc) structural() bool { return false }

func (d *textDesc) describe() Descriptor {
	return Descriptor{Kind: "text", Expr: d.raw}
}

// textExpr writes the value of a template into a text node.
type textExpr struct {
	tree  dom.Tree
	node  *dom.Node
	raw   string
	scope Scope
	last  string
	init  bool
}

func (e *textExpr) Update() error {
	v, err := tmpl.Evaluate(e.raw, e.scope.Env())
	if err != nil {
		return err
	}

	s := tmpl.Stringify(v)
	if e.init && s == e.last {
		return nil
	}

	e.tree.SetText(e.node, s)
	e.last, e.init = s, true

	return nil
}

// attrDesc describes one attribute of an element or component use site.
type attrDesc struct {
	name  string
	raw   string
	camel string
	ref   bool
	expr  bool
}

func (d *attrDesc) mount(rt *Runtime, node *dom.Node, scope Scope) (Expression, error) {
	b := d.bind(rt, node, scope, node)

	return b, b.Update()
}

func (*attrDesc) structural() bool { return false }

func (d *attrDesc) describe() Descriptor {
	kind := "attr"
	if d.ref {
		kind = "ref"
	}

	out := Descriptor{Kind: kind, Name: d.name}
	if d.expr || d.ref {
		out.Expr = d.raw
	}

	return out
}

// bind creates the binding of d on node. A reference registers target in
// the references of scope.
func (d *attrDesc) bind(rt *Runtime, node *dom.Node, scope Scope, target any) *binding {
	b := &binding{attrDesc: d, val: d.raw}

	switch {
	case d.ref:
		b.expr = &refExpr{tree: rt.tree, desc: d, node: node, scope: scope, target: target}
	case d.expr:
		b.expr = &attrExpr{tree: rt.tree, desc: d, node: node, scope: scope}
	}

	return b
}

// binding is a mounted attribute. A literal attribute has no expression and
// keeps its raw value.
type binding struct {
	*attrDesc
	expr Expression
	val  any
}

func (b *binding) dynamic() bool { return b.expr != nil }

func (b *binding) Update() error {
	if b.expr == nil {
		return nil
	}

	if err := b.expr.Update(); err != nil {
		return err
	}

	switch e := b.expr.(type) {
	case *attrExpr:
		b.val = e.value
	case *refExpr:
		b.val = e.name
	}

	return nil
}

func (b *binding) Unmount() {
	if u, ok := b.expr.(Unmounter); ok {
		u.Unmount()
	}
}

// attrExpr writes the value of a template into an element attribute.
type attrExpr struct {
	tree  dom.Tree
	desc  *attrDesc
	node  *dom.Node
	scope Scope
	value any
	init  bool
}

func (e *attrExpr) Update() error {
	v, err := tmpl.Evaluate(e.desc.raw, e.scope.Env())
	if err != nil {
		return tmpl.WrapError(err).With(slog.String("attr", e.desc.name))
	}

	if e.init && same(v, e.value) {
		return nil
	}

	e.value, e.init = v, true

	if !dom.IsElement(e.node) {
		return nil
	}

	switch {
	case v == nil, v == false:
		e.tree.RemoveAttr(e.node, e.desc.name)
	case v == true:
		e.tree.SetAttr(e.node, e.desc.name, e.desc.name)
	case tmpl.IsScalar(v):
		e.tree.SetAttr(e.node, e.desc.name, tmpl.Stringify(v))
	default:
		e.tree.RemoveAttr(e.node, e.desc.name)
	}

	return nil
}
