package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML fragment in a <body> context and returns it as a
// fragment node.
//
// Whitespace-only text spanning a line break (template indentation) is
// dropped. Custom elements must be written with explicit end tags, since
// HTML does not honor self-closing syntax on unknown elements.
func Parse(r io.Reader) (*Node, error) {
	context := &Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, err
	}

	frag := HTML{}.CreateFragment()
	for _, n := range nodes {
		frag.AppendChild(n)
	}

	compact(frag)

	return frag, nil
}

// ParseString is [Parse] on a string.
func ParseString(src string) (*Node, error) {
	return Parse(strings.NewReader(src))
}

// MustParse is [ParseString] that panics on error. It is intended for
// package-level templates and tests.
func MustParse(src string) *Node {
	n, err := ParseString(src)
	if err != nil {
		panic(err)
	}

	return n
}

func compact(n *Node) {
	for child := range Children(n) {
		if IsText(child) && strings.TrimSpace(child.Data) == "" &&
			strings.ContainsAny(child.Data, "\r\n") {
			n.RemoveChild(child)

			continue
		}

		if child.Data != "pre" && child.Data != "textarea" {
			compact(child)
		}
	}
}

// Render writes the HTML serialization of n. A fragment renders its
// children in order.
func Render(w io.Writer, n *Node) error {
	if n == nil {
		return nil
	}

	if IsFragment(n) {
		for child := range Children(n) {
			if err := html.Render(w, child); err != nil {
				return err
			}
		}

		return nil
	}

	return html.Render(w, n)
}

// String returns the HTML serialization of n, or the error text if
// rendering fails.
func String(n *Node) string {
	var buf bytes.Buffer

	if err := Render(&buf, n); err != nil {
		return err.Error()
	}

	return buf.String()
}
