package tag

import (
	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tmpl"
)

// refExpr registers its target in the references of its scope under the
// name given by a ref attribute. The target is the component when the
// attribute sits on a component root, otherwise the element.
type refExpr struct {
	tree   dom.Tree
	desc   *attrDesc
	node   *dom.Node
	scope  Scope
	target any
	name   string
	init   bool
}

func (e *refExpr) Update() error {
	name := e.desc.raw

	if e.desc.expr {
		v, err := tmpl.Evaluate(e.desc.raw, e.scope.Env())
		if err != nil {
			return err
		}

		name = tmpl.Stringify(v)
	}

	if e.init && name == e.name {
		return nil
	}

	refs := e.scope.Refs()

	if e.name != "" {
		refs.Remove(e.name, e.target)
	}

	if e.name != "" || (!e.init && name == "") {
		e.tree.RemoveAttr(e.node, e.desc.name)
	}

	if name != "" {
		refs.Add(name, e.target)
		e.tree.SetAttr(e.node, e.desc.name, name)
	}

	e.name, e.init = name, true

	return nil
}

func (e *refExpr) Unmount() {
	if e.name != "" && e.node != nil {
		e.scope.Refs().Remove(e.name, e.target)
		e.tree.RemoveAttr(e.node, e.desc.name)
	}

	e.node = nil
}
