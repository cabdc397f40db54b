package dom

import (
	"golang.org/x/net/html"
)

// Node is a render tree node.
type Node = html.Node

// Tree performs structural and attribute mutations on render tree nodes.
type Tree interface {
	// Clone returns a deep copy of n detached from any parent.
	Clone(n *Node) *Node
	// InsertBefore inserts n into parent before ref, or appends it when ref
	// is nil. A node that is already attached is moved. A fragment inserts
	// its children in order.
	InsertBefore(parent, n, ref *Node)
	// RemoveChild detaches n from parent. It does nothing when n is not a
	// child of parent.
	RemoveChild(parent, n *Node)
	CreateText(data string) *Node
	CreateFragment() *Node
	Attr(n *Node, name string) (string, bool)
	SetAttr(n *Node, name, value string)
	RemoveAttr(n *Node, name string)
	SetText(n *Node, data string)
}

// HTML is the [Tree] implementation operating directly on [html.Node].
type HTML struct{}

var _ Tree = HTML{}

// Clone implements [Tree].
func (HTML) Clone(n *Node) *Node {
	if n == nil {
		return nil
	}

	c := &Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}

	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(HTML{}.Clone(child))
	}

	return c
}

// InsertBefore implements [Tree].
func (t HTML) InsertBefore(parent, n, ref *Node) {
	if parent == nil || n == nil || n == ref {
		return
	}

	if IsFragment(n) {
		for child := n.FirstChild; child != nil; {
			next := child.NextSibling
			t.InsertBefore(parent, child, ref)
			child = next
		}

		return
	}

	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}

	if ref == nil || ref.Parent != parent {
		parent.AppendChild(n)

		return
	}

	parent.InsertBefore(n, ref)
}

// RemoveChild implements [Tree].
func (HTML) RemoveChild(parent, n *Node) {
	if parent == nil || n == nil || n.Parent != parent {
		return
	}

	parent.RemoveChild(n)
}

// CreateText implements [Tree].
func (HTML) CreateText(data string) *Node {
	return &Node{Type: html.TextNode, Data: data}
}

// CreateFragment implements [Tree].
func (HTML) CreateFragment() *Node {
	return &Node{Type: html.DocumentNode}
}

// Attr implements [Tree].
func (HTML) Attr(n *Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}

	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}

	return "", false
}

// SetAttr implements [Tree].
func (HTML) SetAttr(n *Node, name, value string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}

	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value

			return
		}
	}

	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr implements [Tree].
func (HTML) RemoveAttr(n *Node, name string) {
	if n == nil {
		return
	}

	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)

			return
		}
	}
}

// SetText implements [Tree].
func (HTML) SetText(n *Node, data string) {
	if n != nil {
		n.Data = data
	}
}

// IsFragment reports whether n is a fragment container.
func IsFragment(n *Node) bool {
	return n != nil && n.Type == html.DocumentNode
}

// IsElement reports whether n is an element.
func IsElement(n *Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsText reports whether n is a text node.
func IsText(n *Node) bool {
	return n != nil && n.Type == html.TextNode
}
