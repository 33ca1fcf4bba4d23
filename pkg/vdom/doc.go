// Package vdom provides the description tree consumed by the reconciler.
//
// A description tree is an immutable value produced by render functions.
// Each Node names a type (a host element tag, a text leaf, a fragment or a
// component), the input data for that type, an optional reconciliation key,
// and its children. The reconciler in package fiber walks a new description
// tree against the committed unit tree and derives the host mutations.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	El("ul", Class("todo"),
//	    El("li", Key("a"), Text("first")),
//	    El("li", Key("b"), Text("second")),
//	)
//
// # Props
//
// Props are read-only once a Node has been handed to the reconciler.
// DiffProps compares two prop maps and returns the attribute changes a host
// applies during commit.
//
// # Patches
//
// Patch records describe host mutations. Hosts that keep an operation log
// (see package memhost) record one Patch per applied mutation.
package vdom
