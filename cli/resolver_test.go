package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve_Flatten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want config
	}{
		{
			name: "flat",
			doc:  "log-level: debug\nlib-dir: [a, b]\n",
			want: config{"log-level": "debug", "lib-dir": []any{"a", "b"}},
		},
		{
			name: "nested",
			doc:  "log:\n  level: debug\n  time_layout: kitchen\n",
			want: config{"log-level": "debug", "log-time-layout": "kitchen"},
		},
		{
			name: "numbers",
			doc:  "indent: 4\nratio: 0.5\nlist: [1, 2]\n",
			want: config{"indent": "4", "ratio": "0.5", "list": []any{"1", "2"}},
		},
		{
			name: "empty",
			doc:  "",
			want: config{},
		},
		{
			name: "malformed",
			doc:  "log: [debug\n",
			want: config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := resolve(t.Context())(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatal(err)
			}

			got, ok := res.(config)
			if !ok {
				t.Fatalf("resolve() = %T, want config", res)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("resolve() = %v, want %v", got, tt.want)
			}

			for k, v := range tt.want {
				if !equalValue(got[k], v) {
					t.Errorf("resolve()[%s] = %#v, want %#v", k, got[k], v)
				}
			}
		})
	}
}

func equalValue(a, b any) bool {
	as, ok := a.([]any)
	if !ok {
		return a == b
	}

	bs, ok := b.([]any)
	if !ok || len(as) != len(bs) {
		return false
	}

	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}

	return true
}

func TestResolve_Configuration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	err := os.WriteFile(path, []byte("log:\n  level: debug\ncount: 4\nname: file\n"), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	var cli struct {
		LogLevel string `default:"info"`
		Count    int
		Name     string
	}

	parser, err := kong.New(&cli, kong.Configuration(resolve(t.Context()), path))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--name=flag"}); err != nil {
		t.Fatal(err)
	}

	if cli.LogLevel != "debug" || cli.Count != 4 || cli.Name != "flag" {
		t.Errorf("parsed = %+v", cli)
	}
}
