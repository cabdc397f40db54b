package tag

import (
	"github.com/ardnew/tagmount/dom"
)

// Block is a mounted instance of a [Plan]: a render subtree together with
// the expressions bound into it.
//
// A virtual block has no root element. Its nodes are delimited by empty head
// and tail text markers so the range can be moved or removed as a unit.
type Block struct {
	root        *dom.Node
	head, tail  *dom.Node
	expressions []Expression
	scope       Scope
}

// mount instantiates p against scope. Every expression except nested
// components is updated once as it is created.
func (rt *Runtime) mount(p *Plan, scope Scope) (*Block, error) {
	b := &Block{root: rt.tree.Clone(p.pristine), scope: scope}
	idx := 0

	var err error

	dom.Walk(b.root, func(n *dom.Node) bool {
		if err != nil {
			return false
		}

		row := p.row(idx)
		idx++

		for _, d := range row {
			var e Expression
			if e, err = d.mount(rt, n, scope); err != nil {
				return false
			}

			b.expressions = append(b.expressions, e)
		}

		return !isStructural(row)
	})

	if err != nil {
		b.unmount()

		return nil, err
	}

	if p.virtual {
		var t dom.HTML

		b.head, b.tail = t.CreateText(""), t.CreateText("")
		t.InsertBefore(b.root, b.head, b.root.FirstChild)
		t.InsertBefore(b.root, b.tail, nil)
	}

	return b, nil
}

// first returns the node other nodes are inserted before to precede b.
func (b *Block) first() *dom.Node {
	if b.head != nil {
		return b.head
	}

	return b.root
}

// attached reports whether the nodes of b have left their root fragment.
func (b *Block) attached() bool {
	if b.head != nil {
		return b.head.Parent != b.root
	}

	return b.root.Parent != nil
}

// insert moves the nodes of b into parent before ref. When ref is attached,
// its own parent is used.
func (b *Block) insert(tree dom.Tree, parent, ref *dom.Node) {
	if ref != nil && ref.Parent != nil {
		parent = ref.Parent
	}

	if b.head == nil || !b.attached() {
		tree.InsertBefore(parent, b.root, ref)

		return
	}

	for n := b.head; n != nil; {
		next := n.NextSibling
		tree.InsertBefore(parent, n, ref)

		if n == b.tail {
			break
		}

		n = next
	}
}

// detach removes the nodes of b from the render tree.
func (b *Block) detach(tree dom.Tree) {
	if b.head == nil {
		tree.RemoveChild(b.root.Parent, b.root)

		return
	}

	if !b.attached() {
		return
	}

	for n := b.head; n != nil; {
		next := n.NextSibling
		tree.RemoveChild(n.Parent, n)

		if n == b.tail {
			break
		}

		n = next
	}
}

func (b *Block) update() error {
	for _, e := range b.expressions {
		if err := e.Update(); err != nil {
			return err
		}
	}

	return nil
}

func (b *Block) unmount() {
	for _, e := range b.expressions {
		if u, ok := e.(Unmounter); ok {
			u.Unmount()
		}
	}
}

// remove unmounts every expression of b and detaches its nodes.
func (b *Block) remove(tree dom.Tree) {
	b.unmount()
	b.detach(tree)
}
