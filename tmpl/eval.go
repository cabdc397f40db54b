package tmpl

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// HasExpr reports whether s contains at least one expression.
func HasExpr(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case Open:
			if _, err := matchClose(s, i); err == nil {
				return true
			}
		}
	}

	return false
}

// Evaluate compiles src (or reuses a cached compilation) and evaluates it
// against env.
//
// A template that is a single expression yields the expression's value
// unchanged. Otherwise the result is a string concatenating the literal text
// with the [Stringify] form of each expression value.
//
// A class shorthand expression such as "{ done: item.done, active: sel }"
// yields the space-separated names whose conditions are [Truthy], in source
// order.
func Evaluate(src string, env map[string]any) (any, error) {
	t, err := Compile(src)
	if err != nil {
		return nil, err
	}

	return t.Eval(env)
}

// Eval evaluates the template against env.
func (t *Template) Eval(env map[string]any) (any, error) {
	if env == nil {
		env = map[string]any{}
	}

	if t.Single() {
		return t.segments[0].eval(t.source, env)
	}

	var sb strings.Builder

	for _, seg := range t.segments {
		if !seg.isExpr() {
			sb.WriteString(seg.text)

			continue
		}

		v, err := seg.eval(t.source, env)
		if err != nil {
			return nil, err
		}

		sb.WriteString(Stringify(v))
	}

	return sb.String(), nil
}

func (s segment) eval(source string, env map[string]any) (any, error) {
	if s.classes == nil {
		v, err := expr.Run(s.program, env)
		if err != nil {
			return nil, ErrEvaluate.Wrap(err).With(slog.String("source", source))
		}

		return v, nil
	}

	names := make([]string, 0, len(s.classes))

	for _, c := range s.classes {
		v, err := expr.Run(c.program, env)
		if err != nil {
			return nil, ErrEvaluate.Wrap(err).With(
				slog.String("source", source),
				slog.String("class", c.name),
			)
		}

		if Truthy(v) {
			names = append(names, c.name)
		}
	}

	return strings.Join(names, " "), nil
}

// Truthy reports whether v counts as true in a condition. The false values
// are nil (including typed nil pointers, maps, slices, funcs and
// interfaces), false, numeric zero, NaN, and the empty string.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Interface, reflect.Chan:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()

		return f != 0 && !math.IsNaN(f)
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	}

	return true
}

// Stringify formats v for insertion into text. Nil and false become the
// empty string.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if !x {
			return ""
		}

		return "true"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}

	rv := reflect.ValueOf(v)
	if k := rv.Kind(); (k == reflect.Pointer || k == reflect.Interface) && rv.IsNil() {
		return ""
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprint(v)
}

// IsScalar reports whether v can be written as an attribute value: nil,
// booleans, numbers, and strings.
func IsScalar(v any) bool {
	if v == nil {
		return true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}

	_, ok := v.(fmt.Stringer)

	return ok
}

// Loop describes the bindings of an each attribute.
type Loop struct {
	// Key names the variable bound to each item, or is empty when items
	// are merged into the block scope.
	Key string
	// Pos names the variable bound to each item's index. It is empty
	// when no index variable is declared.
	Pos string
	// Val is the template producing the collection.
	Val string
}

var loopPattern = regexp.MustCompile(
	`^\s*([$\w]+)(?:\s*,\s*([$\w]+))?\s+in\s+(\S.*?)\s*$`,
)

// LoopKeys parses the each attribute value raw. "{ item, i in items }"
// yields Key "item", Pos "i", and Val "{ items }". A value without the
// "in" form is returned as Val with no key.
func LoopKeys(raw string) Loop {
	parts, err := split(strings.TrimSpace(raw))
	if err != nil || len(parts) != 1 || !parts[0].expr {
		return Loop{Val: raw}
	}

	m := loopPattern.FindStringSubmatch(parts[0].text)
	if m == nil {
		return Loop{Val: raw}
	}

	return Loop{
		Key: m[1],
		Pos: m[2],
		Val: string(Open) + " " + m[3] + " " + string(Close),
	}
}
