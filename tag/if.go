package tag

import (
	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tmpl"
)

type ifDesc struct {
	raw  string
	plan *Plan
}

func (d *ifDesc) mount(rt *Runtime, node *dom.Node, scope Scope) (Expression, error) {
	e := &ifExpr{rt: rt, desc: d, stub: node, scope: scope}

	return e, e.Update()
}

func (*ifDesc) structural() bool { return true }

func (d *ifDesc) describe() Descriptor {
	return Descriptor{Kind: "if", Expr: d.raw, Plan: d.plan.Describe()}
}

// ifExpr shows its block before the placeholder while its condition holds.
// The block is mounted against the enclosing scope.
type ifExpr struct {
	rt    *Runtime
	desc  *ifDesc
	stub  *dom.Node
	scope Scope
	shown bool
	block *Block
}

func (e *ifExpr) Update() error {
	v, err := tmpl.Evaluate(e.desc.raw, e.scope.Env())
	if err != nil {
		return err
	}

	show := tmpl.Truthy(v)

	switch {
	case show && e.shown:
		return e.block.update()

	case show == e.shown:
		return nil

	case show:
		b, err := e.rt.mount(e.desc.plan, e.scope)
		if err != nil {
			return err
		}

		b.insert(e.rt.tree, e.stub.Parent, e.stub)
		e.block = b

	default:
		e.block.remove(e.rt.tree)
		e.block = nil
	}

	e.shown = show

	return nil
}

func (e *ifExpr) Unmount() {
	if e.block != nil {
		e.block.remove(e.rt.tree)
		e.block = nil
	}

	e.shown = false
}
