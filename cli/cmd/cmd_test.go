package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tagmount/library"
)

const todoLibrary = `
tags:
  - name: todo-list
    html: |
      <ul><li each="{ item in opts.items }">{ item }</li></ul>
`

// writeFile writes content to name inside dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// commandContext returns a context carrying a kong context whose output is
// captured, and libraries loaded from dir.
func commandContext(t *testing.T, dir string) (context.Context, *bytes.Buffer) {
	t.Helper()

	var (
		cli struct{}
		buf bytes.Buffer
	)

	parser, err := kong.New(&cli,
		kong.Writers(&buf, io.Discard),
		kong.Vars{CacheIdentifier: t.TempDir()},
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(t.Context(), ktx)
	ctx = WithLibraries(ctx, &Libraries{
		Loader: library.New(library.WithDirs(dir)),
	})

	return ctx, &buf
}

func TestReadData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	multi := writeFile(t, dir, "steps.yaml", "items: [a]\n---\nitems: [a, b]\n")
	empty := writeFile(t, dir, "empty.yaml", "")
	bad := writeFile(t, dir, "bad.yaml", "items: [a\n")

	tests := []struct {
		name    string
		src     string
		want    int
		wantErr bool
	}{
		{"none", "", 1, false},
		{"multi", multi, 2, false},
		{"empty", empty, 1, false},
		{"bad", bad, 0, true},
		{"missing", filepath.Join(dir, "missing.yaml"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			docs, err := readData(tt.src)
			if tt.wantErr {
				if !errors.Is(err, ErrReadData) {
					t.Errorf("readData() error = %v, want %v", err, ErrReadData)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if len(docs) != tt.want {
				t.Errorf("readData() = %d documents, want %d", len(docs), tt.want)
			}
		})
	}
}

func TestLibraries_Unique(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "todo.yaml", todoLibrary)

	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	libs := &Libraries{Loader: library.New(library.WithDirs(dir))}

	got := libs.unique([]string{path, link, "todo", "missing"})
	want := []string{path, "missing"}

	if !slices.Equal(got, want) {
		t.Errorf("unique() = %v, want %v", got, want)
	}
}

func TestLibraries_Runtime(t *testing.T) {
	t.Parallel()

	t.Run("discover", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "todo.yaml", todoLibrary)
		writeFile(t, dir, "notes.txt", "ignored")

		libs := &Libraries{Loader: library.New(library.WithDirs(dir))}

		rt, err := libs.Runtime(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if _, ok := rt.Impl("todo-list"); !ok {
			t.Errorf("Runtime() names = %v, want todo-list", rt.Names())
		}
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		libs := &Libraries{Loader: library.New(library.WithDirs(t.TempDir()))}

		if _, err := libs.Runtime(t.Context()); !errors.Is(err, ErrNoLibrary) {
			t.Errorf("Runtime() error = %v, want %v", err, ErrNoLibrary)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		libs := &Libraries{
			Loader: library.New(library.WithDirs(t.TempDir())),
			Names:  []string{"absent"},
		}

		_, err := libs.Runtime(t.Context())
		if !errors.Is(err, ErrLibrary) || !errors.Is(err, library.ErrNotFound) {
			t.Errorf("Runtime() error = %v, want %v", err, library.ErrNotFound)
		}
	})
}

func TestRender_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "todo.yaml", todoLibrary)

	input := t.TempDir()
	data := writeFile(t, input, "data.yml", "items: [milk, eggs]\n")
	page := writeFile(t, input, "page.html",
		`<section><todo-list></todo-list><p>done</p></section>`)

	tests := []struct {
		name    string
		cmd     Render
		want    string
		wantErr error
	}{
		{
			name: "tag",
			cmd:  Render{Tag: "todo-list", Data: data},
			want: "<todo-list><ul><li>milk</li><li>eggs</li></ul></todo-list>\n",
		},
		{
			name: "page",
			cmd:  Render{Page: page, Data: data},
			want: "<section><todo-list><ul><li>milk</li><li>eggs</li></ul></todo-list>" +
				"<p>done</p></section>\n",
		},
		{
			name:    "unknown",
			cmd:     Render{Tag: "todo-item"},
			wantErr: ErrMount,
		},
		{
			name:    "nothing",
			cmd:     Render{},
			wantErr: ErrMount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := commandContext(t, dir)

			err := tt.cmd.Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("Run() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "todo.yaml", todoLibrary)
	data := writeFile(t, t.TempDir(), "steps.yaml",
		"items: [milk]\n---\nitems: [milk, eggs]\n---\nitems: [eggs]\n")

	final := "<todo-list><ul><li>eggs</li></ul></todo-list>"

	t.Run("steps", func(t *testing.T) {
		t.Parallel()

		ctx, out := commandContext(t, dir)

		if err := (&Apply{Tag: "todo-list", Data: data}).Run(ctx); err != nil {
			t.Fatal(err)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 6 {
			t.Fatalf("Run() output lines = %q", lines)
		}

		for i, prefix := range []string{"# step 0:", "# step 1:", "# step 2:"} {
			if !strings.HasPrefix(lines[2*i], prefix) {
				t.Errorf("line %d = %q, want prefix %q", 2*i, lines[2*i], prefix)
			}
		}

		if lines[1] != "<todo-list><ul><li>milk</li></ul></todo-list>" {
			t.Errorf("step 0 HTML = %q", lines[1])
		}

		if lines[5] != final {
			t.Errorf("step 2 HTML = %q, want %q", lines[5], final)
		}
	})

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()

		ctx, out := commandContext(t, dir)

		err := (&Apply{Tag: "todo-list", Data: data, Quiet: true}).Run(ctx)
		if err != nil {
			t.Fatal(err)
		}

		if got := out.String(); got != final+"\n" {
			t.Errorf("Run() output = %q, want %q", got, final+"\n")
		}
	})
}

func TestPlan_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "todo.yaml", todoLibrary)

	tests := []struct {
		format string
		want   []string
	}{
		{"yaml", []string{"rows:", "kind: each", "opts.items", "key: item"}},
		{"json", []string{`"rows"`, `"kind": "each"`, `"key": "item"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			ctx, out := commandContext(t, dir)

			err := (&Plan{Tag: "todo-list", Format: tt.format, Indent: 2}).Run(ctx)
			if err != nil {
				t.Fatal(err)
			}

			got := out.String()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Run() output missing %q:\n%s", want, got)
				}
			}

			if !strings.HasSuffix(got, "\n") {
				t.Error("Run() output does not end with a newline")
			}
		})
	}
}
