package tmpl

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"
)

// Open and Close delimit an expression inside a template string.
const (
	Open  = '{'
	Close = '}'
)

// segment is either literal text or a compiled expression.
type segment struct {
	text    string
	program *vm.Program
	classes []class
}

// class is one entry of a class shorthand expression.
type class struct {
	name    string
	program *vm.Program
}

func (s segment) isExpr() bool { return s.program != nil || s.classes != nil }

// Template is a compiled template string.
type Template struct {
	source   string
	segments []segment
}

// Source returns the template text it was compiled from.
func (t *Template) Source() string { return t.source }

// Single reports whether the template consists of exactly one expression
// with no surrounding text, in which case [Template.Eval] returns the raw
// value of the expression.
func (t *Template) Single() bool {
	return len(t.segments) == 1 && t.segments[0].isExpr()
}

// cache holds compiled templates keyed by the xxh3 hash of their source.
var cache sync.Map

// ClearCache removes all compiled templates.
func ClearCache() {
	cache.Clear()
}

// Compile returns the compiled form of src, reusing a previous compilation
// of identical source.
func Compile(src string) (*Template, error) {
	key := xxh3.HashString(src)

	if v, ok := cache.Load(key); ok {
		if t, ok := v.(*Template); ok && t.source == src {
			return t, nil
		}
	}

	t, err := compile(src)
	if err != nil {
		return nil, err
	}

	cache.Store(key, t)

	return t, nil
}

func compile(src string) (*Template, error) {
	parts, err := split(src)
	if err != nil {
		return nil, err
	}

	t := &Template{source: src}

	for _, p := range parts {
		if !p.expr {
			if p.text != "" {
				t.segments = append(t.segments, segment{text: p.text})
			}

			continue
		}

		seg, err := compileExpr(p.text)
		if err != nil {
			return nil, err
		}

		t.segments = append(t.segments, seg)
	}

	return t, nil
}

func compileExpr(code string) (segment, error) {
	if entries, ok := classShorthand(code); ok {
		seg := segment{classes: make([]class, 0, len(entries))}

		for _, e := range entries {
			p, err := program(e[1])
			if err != nil {
				return segment{}, err
			}

			seg.classes = append(seg.classes, class{name: e[0], program: p})
		}

		return seg, nil
	}

	p, err := program(code)
	if err != nil {
		return segment{}, err
	}

	return segment{program: p}, nil
}

func program(code string) (*vm.Program, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = "nil"
	}

	p, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, ErrCompile.Wrap(err).With(slog.String("source", code))
	}

	return p, nil
}

// part is a raw piece of template text produced by split.
type part struct {
	text string
	expr bool
}

// split separates src into literal text and expression bodies. Braces nest,
// and braces inside quoted strings within an expression are ignored.
// A backslash before an opening brace produces a literal brace.
func split(src string) ([]part, error) {
	var (
		parts []part
		lit   strings.Builder
	)

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '\\' && i+1 < len(src) && (src[i+1] == Open || src[i+1] == Close) {
			lit.WriteByte(src[i+1])
			i++

			continue
		}

		if c != Open {
			lit.WriteByte(c)

			continue
		}

		end, err := matchClose(src, i)
		if err != nil {
			return nil, err
		}

		if lit.Len() > 0 {
			parts = append(parts, part{text: lit.String()})
			lit.Reset()
		}

		parts = append(parts, part{text: src[i+1 : end], expr: true})
		i = end
	}

	if lit.Len() > 0 {
		parts = append(parts, part{text: lit.String()})
	}

	return parts, nil
}

// matchClose returns the index of the brace closing the one at open.
func matchClose(src string, open int) (int, error) {
	depth := 0

	var quote byte

	for i := open; i < len(src); i++ {
		c := src[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case Open:
			depth++
		case Close:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return 0, ErrSyntax.With(
		slog.String("source", src),
		slog.Int("offset", open),
		slog.String("issue", "unterminated expression"),
	)
}

// classShorthand recognizes "name: cond, other: cond" and returns the
// (name, condition) pairs in source order.
func classShorthand(code string) ([][2]string, bool) {
	fields := splitTopLevel(code, ',')

	entries := make([][2]string, 0, len(fields))

	for _, f := range fields {
		name, cond, ok := cutClassEntry(f)
		if !ok {
			return nil, false
		}

		entries = append(entries, [2]string{name, cond})
	}

	return entries, len(entries) > 0
}

func cutClassEntry(field string) (name, cond string, ok bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", "", false
	}

	if q := field[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(field[1:], q)
		if end < 0 {
			return "", "", false
		}

		name = field[1 : end+1]
		field = strings.TrimSpace(field[end+2:])
	} else {
		end := strings.IndexFunc(field, func(r rune) bool {
			return !isClassRune(r)
		})
		if end <= 0 {
			return "", "", false
		}

		name = field[:end]
		field = strings.TrimSpace(field[end:])
	}

	rest, found := strings.CutPrefix(field, ":")
	if !found || strings.TrimSpace(rest) == "" {
		return "", "", false
	}

	return name, rest, name != ""
}

func isClassRune(r rune) bool {
	return r == '-' || r == '_' || r == '$' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// splitTopLevel splits s at sep where sep is not nested in brackets or
// quotes.
func splitTopLevel(s string, sep byte) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}

	return append(out, s[start:])
}
