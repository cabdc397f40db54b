package tag

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/ardnew/tagmount/dom"
)

// setup returns a runtime recording its mutations with impls registered.
func setup(t *testing.T, impls ...Impl) (*Runtime, *dom.Recorder) {
	t.Helper()

	rec := dom.NewRecorder(nil)
	rt := New(WithTree(rec))

	for _, impl := range impls {
		if err := rt.Register(impl); err != nil {
			t.Fatalf("Register(%s) error = %v", impl.Name, err)
		}
	}

	return rt, rec
}

// mountHost mounts name on an element inside a <main> container.
func mountHost(t *testing.T, rt *Runtime, host string, opts map[string]any) (*Tag, *dom.Node) {
	t.Helper()

	main := dom.MustParse("<main>" + host + "</main>").FirstChild

	tg, err := rt.Mount(main.FirstChild, tagName(main.FirstChild), opts)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	return tg, main
}

func render(n *dom.Node) string { return dom.String(n) }

func TestMount_TextAndAttributes(t *testing.T) {
	t.Parallel()

	rt, rec := setup(t, Impl{
		Name: "greet",
		HTML: `<p class="{ cls }" hidden="{ hide }">Hello { opts.name }!</p>`,
		Fn: func(t *Tag, _ map[string]any) error {
			t.Set("cls", "big")
			t.Set("hide", false)

			return nil
		},
	})

	tg, main := mountHost(t, rt, `<greet name="Ann"></greet>`, nil)

	want := `<main><greet name="Ann"><p class="big">Hello Ann!</p></greet></main>`
	if got := render(main); got != want {
		t.Fatalf("render = %s, want %s", got, want)
	}

	rec.Reset()
	if err := tg.Update(); err != nil {
		t.Fatal(err)
	}

	if s := rec.Stats(); s.Total() != 0 {
		t.Errorf("repeated update mutated the tree: %+v", s)
	}

	if err := tg.UpdateWith(map[string]any{"hide": true, "cls": nil}); err != nil {
		t.Fatal(err)
	}

	want = `<main><greet name="Ann"><p hidden="hidden">Hello Ann!</p></greet></main>`
	if got := render(main); got != want {
		t.Errorf("render = %s, want %s", got, want)
	}
}

func TestMount_RootAttributeReread(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t, Impl{Name: "greet", HTML: `<b>{ opts.name }</b>`})
	tg, main := mountHost(t, rt, `<greet name="Ann"></greet>`, nil)

	dom.HTML{}.SetAttr(tg.Root(), "name", "Bob")

	if err := tg.Update(); err != nil {
		t.Fatal(err)
	}

	if got := tg.Opts()["name"]; got != "Bob" {
		t.Errorf("opts.name = %v, want Bob", got)
	}
	if got := dom.Text(main); got != "Bob" {
		t.Errorf("text = %q", got)
	}
}

func TestMount_Errors(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t, Impl{Name: "bad", HTML: `<p>{ ( }</p>`})
	host := dom.MustParse(`<bad></bad>`).FirstChild

	if _, err := rt.Mount(host, "missing", nil); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("unknown tag error = %v", err)
	}

	_, err := rt.Mount(host, "bad", nil)
	if !errors.Is(err, ErrConstruct) || !errors.Is(err, ErrTemplateParse) {
		t.Errorf("template error = %v", err)
	}
	if n := len(rt.Instances()); n != 0 {
		t.Errorf("failed mount left %d instances", n)
	}

	if err := rt.Register(Impl{Name: " "}); !errors.Is(err, ErrInvalidImpl) {
		t.Errorf("Register() error = %v", err)
	}
}

func TestMount_ForceRemount(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t, Impl{Name: "x-box", HTML: `<i>{ opts.n }</i>`})
	main := dom.MustParse(`<main><x-box></x-box></main>`).FirstChild
	host := main.FirstChild

	first, err := rt.Mount(host, "x-box", map[string]any{"n": 1})
	if err != nil {
		t.Fatal(err)
	}

	second, err := rt.Mount(host, "x-box", map[string]any{"n": 2})
	if err != nil {
		t.Fatal(err)
	}

	if first.IsMounted() {
		t.Error("previous instance still mounted")
	}
	if host.Parent != main {
		t.Error("host detached by remount")
	}
	if rt.Owner(host) != second {
		t.Error("owner not updated")
	}
	if got := rt.Instances(); !slices.Equal(got, []*Tag{second}) {
		t.Errorf("Instances() = %v", got)
	}
	if second.ID() <= first.ID() {
		t.Errorf("ids not increasing: %d then %d", first.ID(), second.ID())
	}
	if got := render(main); got != `<main><x-box><i>2</i></x-box></main>` {
		t.Errorf("render = %s", got)
	}
}

func TestMount_ForceRemountNested(t *testing.T) {
	t.Parallel()

	var (
		rt     *Runtime
		built  []*Tag
		events []string
	)

	rt, _ = setup(t,
		Impl{
			Name: "x-box",
			HTML: `<i>{ opts.n }</i>`,
			Fn: func(tg *Tag, _ map[string]any) error {
				built = append(built, tg)
				events = append(events, fmt.Sprint("ctor ", len(built)))

				tg.On(EventUnmount, func(...any) {
					events = append(events, fmt.Sprint("unmount ", slices.Index(built, tg)+1))

					if rt.Owner(tg.Root()) != tg {
						events = append(events, "owner cleared early")
					}
				})

				return nil
			},
		},
		Impl{Name: "shelf", HTML: `<x-box n="{ 1 }"></x-box>`},
	)

	shelf, _ := mountHost(t, rt, `<shelf></shelf>`, nil)

	first, ok := shelf.Tags().Get("x-box")
	if !ok {
		t.Fatal("nested component not registered on parent")
	}

	host := first.Root()

	second, err := rt.Mount(host, "x-box", map[string]any{"n": 2})
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"ctor 1", "unmount 1", "ctor 2"}; !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if !slices.Equal(built, []*Tag{first, second}) {
		t.Error("constructed instances do not match the mounted ones")
	}
	if n := shelf.Tags().Count("x-box"); n != 0 {
		t.Errorf("parent still lists %d x-box", n)
	}
	if rt.Owner(host) != second {
		t.Error("owner not updated")
	}

	second.Unmount(true)

	if rt.Owner(host) != nil {
		t.Error("owner kept after unmount")
	}
}

func TestMount_VirtualHost(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t, Impl{Name: "pair", HTML: `<dt>{ opts.k }</dt><dd>{ opts.v }</dd>`})

	var tree dom.HTML

	dl := dom.MustParse(`<dl><dt>z</dt></dl>`).FirstChild
	stub := tree.CreateText("")
	tree.InsertBefore(dl, stub, dl.FirstChild)

	tg, err := rt.Mount(stub, "pair", map[string]any{"k": "a", "v": 1})
	if err != nil {
		t.Fatal(err)
	}

	if !tg.Virtual() {
		t.Error("text host is not virtual")
	}
	if got := render(dl); got != `<dl><dt>a</dt><dd>1</dd><dt>z</dt></dl>` {
		t.Errorf("render = %s", got)
	}

	tg.Unmount(false)

	if got := render(dl); got != `<dl><dt>z</dt></dl>` {
		t.Errorf("after unmount = %s", got)
	}
	if dom.Len(dl) != 1 {
		t.Errorf("markers left behind: %d children", dom.Len(dl))
	}
}

func TestLifecycle_EventOrder(t *testing.T) {
	t.Parallel()

	var events []string

	record := func(t *Tag, _ map[string]any) error {
		for _, ev := range []string{EventBeforeMount, EventMount, EventBeforeUnmount, EventUnmount} {
			t.On(ev, func(...any) {
				parent := ""
				if p := t.Parent(); p != nil {
					parent = fmt.Sprintf("(parent mounted=%v)", p.IsMounted())
				}

				events = append(events, t.Name()+":"+ev+parent)
			})
		}

		return nil
	}

	rt, _ := setup(t,
		Impl{Name: "outer", HTML: `<section><inner></inner></section>`, Fn: record},
		Impl{Name: "inner", HTML: `<span>in</span>`, Fn: record},
	)

	tg, _ := mountHost(t, rt, `<outer></outer>`, nil)

	want := []string{
		"outer:before-mount",
		"inner:before-mount(parent mounted=false)",
		"outer:mount",
		"inner:mount(parent mounted=true)",
	}
	if !slices.Equal(events, want) {
		t.Errorf("mount events = %v\nwant %v", events, want)
	}

	inner, ok := tg.Tags().Get("inner")
	if !ok || inner.Parent() != tg {
		t.Fatal("child not registered with parent")
	}

	events = nil
	tg.Unmount(false)

	want = []string{
		"outer:before-unmount",
		"inner:before-unmount(parent mounted=true)",
		"inner:unmount(parent mounted=true)",
		"outer:unmount",
	}
	if !slices.Equal(events, want) {
		t.Errorf("unmount events = %v\nwant %v", events, want)
	}

	if tg.Tags().Len() != 0 || len(rt.Instances()) != 0 {
		t.Error("registries not pruned")
	}

	tg.Unmount(false)
	if len(events) != 4 {
		t.Error("second unmount triggered events")
	}
}

func TestLifecycle_AttributesRestored(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t,
		Impl{
			Name: "card",
			HTML: `<article><badge title="{ label }" data-x="{ count }"></badge></article>`,
			Fn: func(t *Tag, _ map[string]any) error {
				t.Set("label", "hi")
				t.Set("count", 2)

				return nil
			},
		},
		Impl{
			Name:  "badge",
			HTML:  `<em>{ opts.title }/{ opts.dataX }</em>`,
			Attrs: []Attr{{Name: "role", Value: "note"}, {Name: "title", Value: "unused"}},
		},
	)

	tg, main := mountHost(t, rt, `<card></card>`, nil)

	want := `<main><card><article><badge title="hi" data-x="2" role="note"><em>hi/2</em></badge></article></card></main>`
	if got := render(main); got != want {
		t.Fatalf("render = %s\nwant %s", got, want)
	}

	badge, _ := tg.Tags().Get("badge")
	root := badge.Root()

	if got := badge.Opts()["dataX"]; got != 2 {
		t.Errorf("opts.dataX = %v", got)
	}

	tg.Unmount(false)

	var tree dom.HTML
	if v, _ := tree.Attr(root, "title"); v != "{ label }" {
		t.Errorf("title restored to %q", v)
	}
	if _, ok := tree.Attr(root, "role"); ok {
		t.Error("default attribute not removed")
	}
	if root.FirstChild != nil {
		t.Error("body not cleared")
	}
}

func TestUpdate_ParentScope(t *testing.T) {
	t.Parallel()

	rt, _ := setup(t, Impl{
		Name: "list",
		HTML: `<ul><li each="{ items }">{ name }{ parent.suffix }</li></ul>`,
		Fn: func(t *Tag, _ map[string]any) error {
			t.Set("suffix", "!")
			t.Set("items", []any{map[string]any{"name": "a"}})

			return nil
		},
	})

	_, main := mountHost(t, rt, `<list></list>`, nil)

	if got := dom.Text(main); got != "a!" {
		t.Errorf("text = %q", got)
	}
}
