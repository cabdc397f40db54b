// Package dom provides the render tree used by the tag runtime.
//
// Nodes are [golang.org/x/net/html] nodes. A [Tree] performs every
// mutation so that callers can substitute an instrumented implementation,
// such as [Recorder], without changing the runtime.
//
// A fragment is an [html.DocumentNode] used as a detached container.
// Inserting a fragment moves its children into the target parent and leaves
// the fragment empty.
package dom
