package tag

import (
	"testing"

	"github.com/ardnew/tagmount/dom"
)

func TestRef_NameChanges(t *testing.T) {
	t.Parallel()

	rt, rec := setup(t, Impl{Name: "form-x", HTML: `<form><input ref="{ name }"></form>`})
	tg, main := mountHost(t, rt, `<form-x></form-x>`, nil)

	input := dom.Find(main, dom.ByName("input"))

	var tree dom.HTML

	for i, name := range []string{"x", "x", "y", "", "y"} {
		rec.Reset()

		if err := tg.UpdateWith(map[string]any{"name": name}); err != nil {
			t.Fatal(err)
		}

		// Repeating a name leaves the tree untouched.
		if i == 1 {
			if got := rec.Stats(); got.Total() != 0 {
				t.Errorf("step %d: unchanged name mutated tree: %+v", i, got)
			}
		}

		attr, hasAttr := tree.Attr(input, "ref")

		if name == "" {
			if tg.Refs().Len() != 0 || hasAttr {
				t.Errorf("step %d: blank name left refs=%d attr=%v", i, tg.Refs().Len(), hasAttr)
			}

			continue
		}

		if got, ok := tg.Refs().Get(name); !ok || got != input {
			t.Errorf("step %d: refs[%s] = %v", i, name, got)
		}
		if tg.Refs().Len() != 1 {
			t.Errorf("step %d: %d names registered", i, tg.Refs().Len())
		}
		if attr != name {
			t.Errorf("step %d: attribute = %q", i, attr)
		}
	}

	tg.Unmount(true)

	if tg.Refs().Len() != 0 {
		t.Error("unmount left references")
	}
}

func TestRef_Targets(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t,
		Impl{Name: "host-x", HTML: `<div><b ref="item"></b><i ref="item"></i><kid ref="child"></kid></div>`},
		Impl{Name: "kid", HTML: `<u></u>`},
	)
	tg, _ := mountHost(t, rt, `<host-x></host-x>`, nil)

	if !tg.Refs().IsMultiple("item") || tg.Refs().Count("item") != 2 {
		t.Errorf("item refs = %v", tg.Refs().List("item"))
	}

	child, ok := tg.Refs().Get("child")
	if _, isTag := child.(*Tag); !ok || !isTag {
		t.Errorf("component ref target = %T", child)
	}

	env := tg.Env()
	if refs, ok := env["refs"].(map[string]any); !ok || refs["child"] != child {
		t.Errorf("refs not exposed to expressions: %v", env["refs"])
	}
}
