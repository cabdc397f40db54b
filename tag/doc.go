// Package tag mounts component templates onto a render tree and keeps them
// in sync with their data.
//
// A component implementation ([Impl]) pairs an HTML body template with an
// initializer. The template is compiled once into a [Plan]: every node that
// carries expressions is described by its pre-order position. Mounting a
// plan clones the template and binds one [Expression] per descriptor:
//
//   - text nodes and attribute values containing "{ expr }" are rewritten
//     when their value changes
//   - an element with an each attribute renders one block per collection
//     item, reusing, moving, and removing blocks as the collection changes
//   - an element with an if attribute is mounted and removed as its
//     condition changes
//   - ref and data-ref attributes register their element (or component) in
//     the refs of the enclosing component
//   - elements named after a registered implementation mount a nested
//     component
//
// Updating a component re-evaluates its options and every expression in
// template order. Nothing is re-rendered wholesale.
//
// A [Runtime] holds the registered implementations and the live instances.
// It is driven from a single goroutine.
package tag
