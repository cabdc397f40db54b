package tag

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/tagmount/dom"
)

func TestMixin_Apply(t *testing.T) {
	t.Parallel()

	var inits []string

	base := &Mixin{
		Name:  "base",
		Props: map[string]any{"greeting": "hello", "level": 1},
		Methods: map[string]Method{
			"shout": func(t *Tag, args ...any) any {
				v, _ := t.Get("greeting")

				return strings.ToUpper(v.(string))
			},
		},
		Init: func(*Tag) { inits = append(inits, "base") },
	}

	derived := &Mixin{
		Name:    "derived",
		Parents: []*Mixin{base},
		Props:   map[string]any{"level": 2},
		Accessors: map[string]Accessor{
			"double": {Get: func(t *Tag) any {
				v, _ := t.Get("level")

				return v.(int) * 2
			}},
			"greeting": {Get: func(*Tag) any { return "hi" }},
		},
		Init: func(*Tag) { inits = append(inits, "derived") },
	}

	rt, _ := setup(t, Impl{
		Name: "mixed",
		HTML: `<p>{ shout() } { level } { double }</p>`,
		Fn: func(t *Tag, _ map[string]any) error {
			t.Mixin(derived)

			return nil
		},
	})

	if err := rt.RegisterMixin(base); err != nil {
		t.Fatal(err)
	}

	tg, main := mountHost(t, rt, `<mixed></mixed>`, nil)

	if got := dom.Text(main); got != "HI 2 4" {
		t.Errorf("text = %q", got)
	}

	if len(inits) != 1 || inits[0] != "derived" {
		t.Errorf("inits = %v, want [derived]", inits)
	}

	if err := tg.MixinNamed("base"); err != nil {
		t.Fatal(err)
	}
	if v, _ := tg.Get("level"); v != 1 {
		t.Errorf("level = %v after reapplying base", v)
	}

	if err := tg.MixinNamed("nope"); !errors.Is(err, ErrUnknownMixin) {
		t.Errorf("MixinNamed() error = %v", err)
	}
}

func TestMixin_AccessorSetter(t *testing.T) {
	t.Parallel()

	var stored any

	m := &Mixin{Accessors: map[string]Accessor{
		"value": {
			Get: func(*Tag) any { return stored },
			Set: func(_ *Tag, v any) { stored = v },
		},
	}}

	rt, _ := setup(t, Impl{Name: "acc", HTML: `<b>{ value }</b>`})
	tg, main := mountHost(t, rt, `<acc></acc>`, nil)
	tg.Mixin(m)

	if err := tg.UpdateWith(map[string]any{"value": "set"}); err != nil {
		t.Fatal(err)
	}

	if stored != "set" {
		t.Errorf("setter not called: %v", stored)
	}
	if got := dom.Text(main); got != "set" {
		t.Errorf("text = %q", got)
	}
}
