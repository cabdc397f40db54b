package dom

import (
	"iter"
	"strings"
)

// Walk visits n and its descendants in pre-order. The children of a node are
// skipped when fn returns false.
//
// The next sibling is read before descending, so fn may replace the node it
// is given without disturbing the traversal of the remaining siblings.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		Walk(child, fn)
		child = next
	}
}

// Children returns an iterator over the direct children of n.
func Children(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n == nil {
			return
		}

		for child := n.FirstChild; child != nil; {
			next := child.NextSibling
			if !yield(child) {
				return
			}

			child = next
		}
	}
}

// Elements returns an iterator over the direct element children of n.
func Elements(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for child := range Children(n) {
			if IsElement(child) && !yield(child) {
				return
			}
		}
	}
}

// Find returns the first node in pre-order below and including n for which
// match returns true.
func Find(n *Node, match func(*Node) bool) *Node {
	var found *Node

	Walk(n, func(c *Node) bool {
		if found != nil {
			return false
		}

		if match(c) {
			found = c

			return false
		}

		return true
	})

	return found
}

// ByName returns a matcher for elements with the given tag name.
func ByName(name string) func(*Node) bool {
	return func(n *Node) bool {
		return IsElement(n) && strings.EqualFold(n.Data, name)
	}
}

// Text returns the concatenated text content of n.
func Text(n *Node) string {
	var sb strings.Builder

	Walk(n, func(c *Node) bool {
		if IsText(c) {
			sb.WriteString(c.Data)
		}

		return true
	})

	return sb.String()
}

// Len returns the number of direct children of n.
func Len(n *Node) int {
	count := 0
	for range Children(n) {
		count++
	}

	return count
}
