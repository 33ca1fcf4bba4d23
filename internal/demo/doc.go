// Package demo contains the components and scenario runner behind fiberctl.
//
// App combines a counter with a keyed todo list. A Controller published by
// the mounted components lets scenario steps dispatch updates into the tree
// from outside. Scenarios are YAML files:
//
//	name: todo
//	yieldEvery: 2
//	steps:
//	  - do: set_items
//	    items: [a, b, c]
//	  - do: toggle
//	    id: b
//	    lane: input
//	  - do: expect
//	    snapshot: '<div class="app">...</div>'
//
// Steps run on the goroutine that owns the root: directly for a host.Queue,
// through Loop.Do for a host.Loop.
package demo

import _ "embed"

// SampleScenario is the scenario written by "fiberctl init".
//
//go:embed scenarios/todo.yaml
var SampleScenario []byte
