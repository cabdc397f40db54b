// Package tmpl evaluates the expressions embedded in template text and
// attribute values.
//
// An expression is written between braces, "Hello { user.name }!", and is
// evaluated with [github.com/expr-lang/expr] against a map environment.
// Undefined variables evaluate to nil. Compiled templates are cached by the
// xxh3 hash of their source.
package tmpl
