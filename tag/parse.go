package tag

import (
	"log/slog"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/net/html"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tmpl"
)

// Reserved attribute names.
const (
	attrEach      = "each"
	attrIf        = "if"
	attrNoReorder = "no-reorder"
	attrRef       = "ref"
	attrDataRef   = "data-ref"
	attrDataIs    = "data-is"
	tagVirtual    = "virtual"
)

// Plan is a compiled template. It holds a pristine copy of the template with
// every loop and conditional subtree replaced by an empty text placeholder,
// and the expression descriptors of each node keyed by the node's pre-order
// position.
//
// Mounting a plan clones the pristine tree and walks the clone in the same
// order, so the descriptors of a row apply to the node at the same position.
type Plan struct {
	pristine *dom.Node
	rows     [][]descriptor
	virtual  bool
}

func (p *Plan) add(idx int, ds ...descriptor) {
	if len(ds) == 0 {
		return
	}

	for len(p.rows) <= idx {
		p.rows = append(p.rows, nil)
	}

	p.rows[idx] = append(p.rows[idx], ds...)
}

func (p *Plan) row(idx int) []descriptor {
	if idx < len(p.rows) {
		return p.rows[idx]
	}

	return nil
}

// Virtual reports whether blocks mounted from p are delimited by marker
// nodes rather than a single root element.
func (p *Plan) Virtual() bool { return p.virtual }

// Expression is the live binding between one template construct and the
// render tree.
type Expression interface {
	Update() error
}

// Unmounter is implemented by expressions that release state on unmount.
type Unmounter interface {
	Unmount()
}

type descriptor interface {
	mount(rt *Runtime, node *dom.Node, scope Scope) (Expression, error)
	// structural reports whether the mounted expression owns the node's
	// subtree, in which case mounting does not descend into it.
	structural() bool
	describe() Descriptor
}

// Descriptor is the inspectable form of a compiled expression descriptor.
type Descriptor struct {
	Kind    string       `json:"kind"              yaml:"kind"`
	Name    string       `json:"name,omitempty"    yaml:"name,omitempty"`
	Expr    string       `json:"expr,omitempty"    yaml:"expr,omitempty"`
	Key     string       `json:"key,omitempty"     yaml:"key,omitempty"`
	Pos     string       `json:"pos,omitempty"     yaml:"pos,omitempty"`
	Filter  string       `json:"filter,omitempty"  yaml:"filter,omitempty"`
	Reorder bool         `json:"reorder,omitempty" yaml:"reorder,omitempty"`
	Attrs   []Descriptor `json:"attrs,omitempty"   yaml:"attrs,omitempty"`
	Plan    *PlanInfo    `json:"plan,omitempty"    yaml:"plan,omitempty"`
}

// PlanInfo is the inspectable form of a [Plan].
type PlanInfo struct {
	Virtual bool      `json:"virtual,omitempty" yaml:"virtual,omitempty"`
	Rows    []RowInfo `json:"rows"              yaml:"rows"`
}

// RowInfo lists the descriptors of the node at pre-order position Index.
type RowInfo struct {
	Index       int          `json:"index"       yaml:"index"`
	Node        string       `json:"node"        yaml:"node"`
	Descriptors []Descriptor `json:"descriptors" yaml:"descriptors"`
}

// Describe returns the inspectable form of p.
func (p *Plan) Describe() *PlanInfo {
	info := &PlanInfo{Virtual: p.virtual, Rows: []RowInfo{}}
	idx := 0

	dom.Walk(p.pristine, func(n *dom.Node) bool {
		row := p.row(idx)
		if len(row) > 0 {
			ri := RowInfo{Index: idx, Node: nodeLabel(n)}
			for _, d := range row {
				ri.Descriptors = append(ri.Descriptors, d.describe())
			}

			info.Rows = append(info.Rows, ri)
		}

		idx++

		return !isStructural(row)
	})

	return info
}

func nodeLabel(n *dom.Node) string {
	switch {
	case dom.IsElement(n):
		return "<" + n.Data + ">"
	case dom.IsText(n):
		if n.Data == "" {
			return "#placeholder"
		}

		return "#text"
	}

	return "#fragment"
}

func isStructural(row []descriptor) bool {
	for _, d := range row {
		if d.structural() {
			return true
		}
	}

	return false
}

// compile builds the plan of root, mutating root into the plan's pristine
// tree. Element roots must not carry loop or conditional attributes.
func (rt *Runtime) compile(root *dom.Node) (*Plan, error) {
	p := &Plan{pristine: root}
	idx := -1

	var err error

	dom.Walk(root, func(n *dom.Node) bool {
		idx++

		if err != nil {
			return false
		}

		switch {
		case dom.IsText(n):
			if tmpl.HasExpr(n.Data) {
				if _, err = tmpl.Compile(n.Data); err != nil {
					err = ErrTemplateParse.Wrap(err).With(slog.String("text", n.Data))

					return false
				}

				p.add(idx, &textDesc{raw: n.Data})
			}

			return true

		case !dom.IsElement(n):
			return true
		}

		if n != root {
			if v, ok := attrValue(n, attrEach); ok && v != "" {
				var d *eachDesc
				if d, err = rt.parseEach(n); err == nil {
					p.add(idx, d)
				}

				return false
			}

			if v, ok := attrValue(n, attrIf); ok && v != "" {
				var d *ifDesc
				if d, err = rt.parseIf(n); err == nil {
					p.add(idx, d)
				}

				return false
			}
		}

		if impl, ok := rt.implFor(n); ok {
			var d *tagDesc
			if d, err = rt.parseTag(n, impl, n != root); err == nil {
				p.add(idx, d)
			}

			return false
		}

		var ds []*attrDesc
		if ds, err = parseAttributes(n.Attr, false); err != nil {
			return false
		}

		for _, d := range ds {
			p.add(idx, d)
		}

		return true
	})

	if err != nil {
		return nil, err
	}

	return p, nil
}

// detach replaces n with an empty text placeholder and returns n.
func detach(n *dom.Node) *dom.Node {
	var t dom.HTML

	stub := t.CreateText("")
	t.InsertBefore(n.Parent, stub, n)
	t.RemoveChild(n.Parent, n)

	return n
}

// subtree compiles n as a block template. A virtual element contributes only
// its children.
func (rt *Runtime) subtree(n *dom.Node) (*Plan, error) {
	if n.Data != tagVirtual {
		return rt.compile(n)
	}

	var t dom.HTML

	children := t.CreateFragment()
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		t.InsertBefore(children, c, nil)
		c = next
	}

	p, err := rt.compile(children)
	if err != nil {
		return nil, err
	}

	p.virtual = true

	return p, nil
}

func (rt *Runtime) parseEach(n *dom.Node) (*eachDesc, error) {
	raw, _ := attrValue(n, attrEach)
	d := &eachDesc{raw: raw, loop: tmpl.LoopKeys(raw), reorder: true}

	if _, err := tmpl.Compile(d.loop.Val); err != nil {
		return nil, ErrTemplateParse.Wrap(err).With(slog.String(attrEach, raw))
	}

	if v, ok := attrValue(n, attrIf); ok && v != "" {
		if _, err := tmpl.Compile(v); err != nil {
			return nil, ErrTemplateParse.Wrap(err).With(slog.String(attrIf, v))
		}

		d.filter = v
	}

	if _, ok := attrValue(n, attrNoReorder); ok {
		d.reorder = false
	}

	var t dom.HTML
	for _, name := range []string{attrEach, attrIf, attrNoReorder} {
		t.RemoveAttr(n, name)
	}

	plan, err := rt.subtree(detach(n))
	if err != nil {
		return nil, err
	}

	d.plan = plan

	return d, nil
}

func (rt *Runtime) parseIf(n *dom.Node) (*ifDesc, error) {
	raw, _ := attrValue(n, attrIf)
	if _, err := tmpl.Compile(raw); err != nil {
		return nil, ErrTemplateParse.Wrap(err).With(slog.String(attrIf, raw))
	}

	dom.HTML{}.RemoveAttr(n, attrIf)

	plan, err := rt.subtree(detach(n))
	if err != nil {
		return nil, err
	}

	return &ifDesc{raw: raw, plan: plan}, nil
}

// parseTag describes a nested component use site. The use site's children
// are discarded. A virtual use site is replaced by a placeholder that the
// component mounts around.
func (rt *Runtime) parseTag(n *dom.Node, impl *Impl, nested bool) (*tagDesc, error) {
	inst, err := parseAttributes(n.Attr, true)
	if err != nil {
		return nil, err
	}

	var t dom.HTML
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		t.RemoveChild(n, c)
		c = next
	}

	d := &tagDesc{impl: impl, inst: inst, virtual: nested && n.Data == tagVirtual}

	if d.implAttrs, err = implAttributes(impl, inst); err != nil {
		return nil, err
	}

	if d.virtual {
		detach(n)
	}

	return d, nil
}

// implAttributes returns the descriptors of the default root attributes of
// impl that are not taken by the use site.
func implAttributes(impl *Impl, inst []*attrDesc) ([]*attrDesc, error) {
	taken := make(map[string]bool, len(inst))
	for _, a := range inst {
		taken[a.name] = true
	}

	var attrs []html.Attribute

	for _, a := range impl.Attrs {
		if !taken[a.Name] {
			attrs = append(attrs, html.Attribute{Key: a.Name, Val: a.Value})
		}
	}

	return parseAttributes(attrs, true)
}

// parseAttributes describes attrs. Only references and attributes with
// expressions are described unless all is set.
func parseAttributes(attrs []html.Attribute, all bool) ([]*attrDesc, error) {
	var ds []*attrDesc

	for _, a := range attrs {
		d := &attrDesc{
			name:  a.Key,
			raw:   a.Val,
			camel: strcase.ToLowerCamel(a.Key),
			ref:   a.Key == attrRef || a.Key == attrDataRef,
			expr:  tmpl.HasExpr(a.Val),
		}

		if d.expr {
			if _, err := tmpl.Compile(a.Val); err != nil {
				return nil, ErrTemplateParse.Wrap(err).With(slog.String(a.Key, a.Val))
			}
		}

		if all || d.ref || d.expr {
			ds = append(ds, d)
		}
	}

	return ds, nil
}

func attrValue(n *dom.Node, name string) (string, bool) {
	return dom.HTML{}.Attr(n, name)
}

// tagName returns the component name requested by element n.
func tagName(n *dom.Node) string {
	if v, ok := attrValue(n, attrDataIs); ok && v != "" {
		return strings.ToLower(v)
	}

	return strings.ToLower(n.Data)
}
