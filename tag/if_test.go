package tag

import (
	"testing"

	"github.com/ardnew/tagmount/dom"
)

func TestIf_Toggle(t *testing.T) {
	t.Parallel()

	rt, rec := setup(t, Impl{Name: "cond", HTML: `<div><p if="{ show }">{ msg }</p></div>`})
	tg, main := mountHost(t, rt, `<cond></cond>`, nil)

	paragraph := func() *dom.Node { return dom.Find(main, dom.ByName("p")) }

	steps := []struct {
		show    bool
		msg     string
		present bool
		fresh   bool
		removed int
	}{
		{show: true, msg: "a", present: true, fresh: true},
		{show: true, msg: "b", present: true},
		{show: false, msg: "b", removed: 1},
		{show: false, msg: "b"},
		{show: true, msg: "c", present: true, fresh: true},
	}

	var last *dom.Node

	for i, step := range steps {
		rec.Reset()

		if err := tg.UpdateWith(map[string]any{"show": step.show, "msg": step.msg}); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}

		p := paragraph()

		if (p != nil) != step.present {
			t.Fatalf("step %d: present = %v, want %v", i, p != nil, step.present)
		}

		if step.present {
			if step.fresh == (p == last) {
				t.Errorf("step %d: fresh block = %v, want %v", i, p != last, step.fresh)
			}

			if got := dom.Text(p); got != step.msg {
				t.Errorf("step %d: text = %q, want %q", i, got, step.msg)
			}

			last = p
		}

		if got := rec.Stats().Remove; got != step.removed {
			t.Errorf("step %d: removals = %d, want %d", i, got, step.removed)
		}
	}
}

func TestIf_NestedLoopUnmount(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t,
		Impl{Name: "panel", HTML: `<div if="{ open }"><cell each="{ items }"></cell></div>`},
		Impl{Name: "cell", HTML: `<span>{ opts.n }</span>`},
	)
	tg, _ := mountHost(t, rt, `<panel></panel>`, nil)

	err := tg.UpdateWith(map[string]any{"open": true, "items": []any{map[string]any{}, map[string]any{}}})
	if err != nil {
		t.Fatal(err)
	}

	if n := tg.Tags().Count("cell"); n != 2 {
		t.Fatalf("cells = %d", n)
	}

	if err := tg.UpdateWith(map[string]any{"open": false}); err != nil {
		t.Fatal(err)
	}

	if n := tg.Tags().Count("cell"); n != 0 {
		t.Errorf("cells = %d after hiding", n)
	}
	if n := len(rt.Instances()); n != 1 {
		t.Errorf("%d live instances, want 1", n)
	}
}
