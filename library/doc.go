// Package library loads tag libraries: documents declaring component
// implementations and named mixins for a [tag.Runtime].
//
// A library is written in YAML:
//
//	mixins:
//	  - name: greeter
//	    props:
//	      greeting: hello
//	tags:
//	  - name: hello-card
//	    mixins: [greeter]
//	    attrs:
//	      - name: role
//	        value: note
//	    html: |
//	      <p>{ greeting }, { opts.who }!</p>
//
// or in HCL:
//
//	mixin "greeter" {
//	  props = { greeting = "hello" }
//	}
//
//	tag "hello-card" {
//	  mixins = ["greeter"]
//	  attr "role" { value = "note" }
//	  html = "<p>{ greeting }, { opts.who }!</p>"
//	}
//
// Attribute values in templates must be quoted when they contain spaces,
// as in each="{ item in items }".
//
// Parsed documents are cached by the xxh3 hash of their source, so loading
// the same library twice decodes it once.
package library
