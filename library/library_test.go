package library

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/tag"
)

const yamlLibrary = `
mixins:
  - name: greeter
    props:
      greeting: hello
  - name: loud
    parents: [greeter]
    props:
      volume: 11
tags:
  - name: hello-card
    mixins: [loud]
    attrs:
      - name: role
        value: note
    data:
      mark: "!"
    html: |
      <p>{ greeting }, { opts.who }{ mark } { volume }</p>
`

const hclLibrary = `
mixin "greeter" {
  props = { greeting = "hello" }
}

tag "hello-card" {
  mixins = ["greeter"]
  attr "role" {
    value = "note"
  }
  data = { mark = "!" }
  html = "<p>{ greeting }, { opts.who }{ mark }</p>"
}
`

func mountCard(t *testing.T, doc *Document) string {
	t.Helper()

	rt := tag.New()
	if err := doc.Install(rt); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	main := dom.MustParse(`<main><hello-card who="Ann"></hello-card></main>`).FirstChild

	if _, err := rt.Mount(main.FirstChild, "hello-card", nil); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	return dom.String(main)
}

func TestParse_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		src    string
		want   string
	}{
		{
			name:   "yaml",
			format: FormatYAML,
			src:    yamlLibrary,
			want:   `<main><hello-card who="Ann" role="note"><p>hello, Ann! 11</p></hello-card></main>`,
		},
		{
			name:   "hcl",
			format: FormatHCL,
			src:    hclLibrary,
			want:   `<main><hello-card who="Ann" role="note"><p>hello, Ann!</p></hello-card></main>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(tt.src), tt.format, tt.name)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if got := doc.Names(); !slices.Equal(got, []string{"hello-card"}) {
				t.Errorf("Names() = %v", got)
			}

			if got := mountCard(t, doc); got != tt.want {
				t.Errorf("render = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		src    string
		want   error
	}{
		{"unknown field", FormatYAML, "tags:\n  - name: x\n    body: y\n", ErrDecode},
		{"bad yaml", FormatYAML, "tags: [", ErrDecode},
		{"bad hcl", FormatHCL, `tag "x" {`, ErrDecode},
		{"missing html", FormatHCL, `tag "x" {}`, ErrDecode},
		{"unknown format", Format(7), "", ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.src), tt.format, tt.name); !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_Cached(t *testing.T) {
	t.Parallel()

	src := []byte(yamlLibrary + "\n# cached\n")

	a, err := Parse(src, FormatYAML, "a")
	if err != nil {
		t.Fatal(err)
	}

	b, err := Parse(src, FormatYAML, "b")
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Error("identical source decoded twice")
	}

	c, err := Parse(src, FormatHCL, "c")
	if err == nil || c == a {
		t.Error("cache shared between formats")
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	doc, err := Parse(nil, FormatYAML, "empty")
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Tags) != 0 || len(doc.Mixins) != 0 {
		t.Errorf("empty document = %+v", doc)
	}
}

func TestInstall_UnknownParent(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
mixins:
  - name: child
    parents: [missing]
tags:
  - name: ok-tag
    html: <b></b>
`), FormatYAML, "parent")
	if err != nil {
		t.Fatal(err)
	}

	rt := tag.New()

	err = doc.Install(rt)
	if !errors.Is(err, tag.ErrUnknownMixin) {
		t.Fatalf("Install() error = %v, want %v", err, tag.ErrUnknownMixin)
	}

	if _, ok := rt.Impl("ok-tag"); !ok {
		t.Error("tags after a failed mixin were not registered")
	}
}

func TestInstall_RuntimeParent(t *testing.T) {
	t.Parallel()

	rt := tag.New()
	if err := rt.RegisterMixin(&tag.Mixin{
		Name:  "base",
		Props: map[string]any{"greeting": "hi"},
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := Parse([]byte(`
mixins:
  - name: child
    parents: [base]
`), FormatYAML, "runtime-parent")
	if err != nil {
		t.Fatal(err)
	}

	if err := doc.Install(rt); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	m, ok := rt.Mixin("child")
	if !ok || len(m.Parents) != 1 || m.Parents[0].Name != "base" {
		t.Errorf("Mixin(child) = %+v, %v", m, ok)
	}
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoader_Resolve(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()

	writeFile(t, second, "cards.yml", yamlLibrary)
	writeFile(t, first, "forms.hcl", hclLibrary)
	direct := writeFile(t, second, "other.yaml", yamlLibrary)

	l := New(WithDirs(first, second))

	tests := []struct {
		name string
		want string
		err  error
	}{
		{"cards", filepath.Join(second, "cards.yml"), nil},
		{"forms", filepath.Join(first, "forms.hcl"), nil},
		{"forms.hcl", filepath.Join(first, "forms.hcl"), nil},
		{direct, direct, nil},
		{"absent", "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := l.Resolve(tt.name)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.err)
			}

			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoader_LoadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "cards.yaml", yamlLibrary)
	writeFile(t, dir, "broken.yaml", "tags: [")
	writeFile(t, dir, "notes.txt", "ignored")

	l := New(WithDirs(dir))

	docs, err := l.LoadAll(t.Context(), "cards", "broken", "absent")
	if !errors.Is(err, ErrDecode) || !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadAll() error = %v", err)
	}

	if len(docs) != 1 || docs[0].Source != filepath.Join(dir, "cards.yaml") {
		t.Fatalf("LoadAll() = %+v", docs)
	}

	found, err := l.Discover()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{filepath.Join(dir, "broken.yaml"), filepath.Join(dir, "cards.yaml")}
	if !slices.Equal(found, want) {
		t.Errorf("Discover() = %v, want %v", found, want)
	}
}

func TestSearchPath(t *testing.T) {
	t.Parallel()

	sep := string(os.PathListSeparator)

	got := SearchPath(strings.Join([]string{"/b", "", "/c"}, sep), "/a")
	if want := []string{"/a", "/b", "/c"}; !slices.Equal(got, want) {
		t.Errorf("SearchPath() = %v, want %v", got, want)
	}

	if got := SearchPath(""); len(got) != 0 {
		t.Errorf("SearchPath(\"\") = %v", got)
	}
}

func TestReadData(t *testing.T) {
	t.Parallel()

	docs, err := ReadData(strings.NewReader("items: [1, 2]\n---\nname: x\n---\n"))
	if err != nil {
		t.Fatal(err)
	}

	if len(docs) < 2 {
		t.Fatalf("ReadData() = %v", docs)
	}

	if docs[1]["name"] != "x" {
		t.Errorf("docs[1] = %v", docs[1])
	}

	if _, err := ReadData(strings.NewReader("- 1\n- 2\n")); !errors.Is(err, ErrDecode) {
		t.Errorf("ReadData(sequence) error = %v, want %v", err, ErrDecode)
	}

	docs, err = ReadData(strings.NewReader(""))
	if err != nil || len(docs) != 0 {
		t.Errorf("ReadData(empty) = %v, %v", docs, err)
	}
}
