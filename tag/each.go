package tag

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tmpl"
)

type eachDesc struct {
	raw     string
	loop    tmpl.Loop
	filter  string
	reorder bool
	plan    *Plan
}

func (d *eachDesc) mount(rt *Runtime, node *dom.Node, scope Scope) (Expression, error) {
	e := &eachExpr{rt: rt, desc: d, stub: node, scope: scope}

	return e, e.Update()
}

func (*eachDesc) structural() bool { return true }

func (d *eachDesc) describe() Descriptor {
	return Descriptor{
		Kind:    "each",
		Expr:    d.loop.Val,
		Key:     d.loop.Key,
		Pos:     d.loop.Pos,
		Filter:  d.filter,
		Reorder: d.reorder,
		Plan:    d.plan.Describe(),
	}
}

// eachExpr renders one block per item of a collection before its
// placeholder and reconciles the blocks with the collection on update.
//
// blocks[i] renders items[i] for every i < len(items) after an update, and
// the render order of the blocks matches their order in the slice.
type eachExpr struct {
	rt     *Runtime
	desc   *eachDesc
	stub   *dom.Node
	scope  Scope
	blocks []*Block
	items  []any
}

// loopStats counts the block operations of one update.
type loopStats struct {
	mounted, moved, removed int
}

func (e *eachExpr) Update() error {
	items, err := e.collect()
	if err != nil {
		return err
	}

	var (
		tree   = e.rt.tree
		parent = e.stub.Parent
		tail   = tree.CreateFragment()
		stats  loopStats
		key    = e.desc.loop.Key
	)

	for i, item := range items {
		reorder := e.desc.reorder && key == "" && identifiable(item)

		oldPos := -1
		if reorder {
			oldPos = indexFrom(e.items, item, i)
		}

		pos := i
		if oldPos >= 0 {
			pos = oldPos
		}

		var b *Block
		if pos < len(e.blocks) {
			b = e.blocks[pos]
		}

		if (!reorder && b == nil) || (reorder && oldPos < 0) {
			nb, err := e.rt.mount(e.desc.plan, e.itemScope(item, i))
			if err != nil {
				return err
			}

			if i == len(e.blocks) {
				nb.insert(tree, tail, nil)
			} else {
				nb.insert(tree, parent, e.blocks[i].first())
				e.items = slices.Insert(e.items, min(i, len(e.items)), item)
			}

			e.blocks = slices.Insert(e.blocks, i, nb)
			stats.mounted++

			continue
		}

		if s, ok := e.blockScope(b); ok {
			s.bind(key, e.desc.loop.Pos, item, i)
		}

		if err := b.update(); err != nil {
			return err
		}

		// Any block whose position changed moves, including one shifted
		// by an earlier move.
		if pos != i {
			b.insert(tree, parent, e.blocks[i].first())
			e.blocks = move(e.blocks, pos, i)
			e.items = move(e.items, pos, i)
			stats.moved++
		}
	}

	for len(e.blocks) > len(items) {
		last := len(e.blocks) - 1
		b := e.blocks[last]
		e.blocks = e.blocks[:last]
		b.remove(tree)
		stats.removed++
	}

	e.items = slices.Clone(items)

	if tail.FirstChild != nil {
		tree.InsertBefore(parent, tail, e.stub)
	}

	e.rt.logger.Trace("loop updated",
		slog.String("each", e.desc.raw),
		slog.Int("items", len(items)),
		slog.Int("mounted", stats.mounted),
		slog.Int("moved", stats.moved),
		slog.Int("removed", stats.removed),
	)

	return nil
}

// collect evaluates the collection and applies the filter.
func (e *eachExpr) collect() ([]any, error) {
	v, err := tmpl.Evaluate(e.desc.loop.Val, e.scope.Env())
	if err != nil {
		return nil, err
	}

	items, err := sequence(v, e.desc.raw)
	if err != nil {
		return nil, err
	}

	if e.desc.filter == "" {
		return items, nil
	}

	kept := items[:0:0]

	for i, item := range items {
		v, err := tmpl.Evaluate(e.desc.filter, e.itemScope(item, i).Env())
		if err != nil {
			return nil, err
		}

		if tmpl.Truthy(v) {
			kept = append(kept, item)
		}
	}

	return kept, nil
}

func (e *eachExpr) itemScope(item any, pos int) *itemScope {
	s := newItemScope(e.scope)
	s.bind(e.desc.loop.Key, e.desc.loop.Pos, item, pos)

	return s
}

// blockScope returns the item scope b was mounted against.
func (e *eachExpr) blockScope(b *Block) (*itemScope, bool) {
	s, ok := b.scope.(*itemScope)

	return s, ok
}

func (e *eachExpr) Unmount() {
	for _, b := range e.blocks {
		b.unmount()
	}
}

// sequence converts the value of the loop collection raw to its items. Nil
// is empty.
func sequence(v any, raw string) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}

		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}

		return items, nil
	}

	return nil, ErrCollection.With(
		slog.String("each", raw),
		slog.String("type", rv.Type().String()),
	)
}

// move relocates s[from] to index to.
func move[T any](s []T, from, to int) []T {
	if from == to || from < 0 || from >= len(s) {
		return s
	}

	v := s[from]
	s = slices.Delete(s, from, from+1)

	return slices.Insert(s, min(to, len(s)), v)
}
