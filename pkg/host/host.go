// Package host defines the collaborators the reconciler needs from its
// environment: deferred execution, a should-yield query, and the mutation
// primitives applied to the externally observable output during commit.
//
// Two schedulers are provided. Queue is a manual scheduler driven by the
// caller (tests, the CLI scenario runner). Loop is a goroutine event loop
// with a time slice budget.
package host

import "github.com/vango-dev/reconciler/pkg/vdom"

// Instance is an opaque handle to a host node created by a Mutator.
type Instance any

// Mutator applies structural edits to the observable output.
// All calls happen during commit, which is never interrupted.
type Mutator interface {
	// CreateElement creates a detached element with the given attributes.
	CreateElement(tag string, props vdom.Props) Instance

	// CreateText creates a detached text node.
	CreateText(text string) Instance

	// AppendChild attaches child as the last child of parent. Used while
	// building a detached subtree.
	AppendChild(parent, child Instance)

	// InsertBefore places child under parent before the sibling before.
	// A nil before appends. If child is already attached under parent it
	// is moved.
	InsertBefore(parent, child, before Instance)

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Instance)

	// CommitUpdate applies attribute changes to an element.
	CommitUpdate(inst Instance, changes []vdom.PropChange)

	// CommitText replaces the content of a text node.
	CommitText(inst Instance, text string)
}

// CommitObserver is implemented by mutators that want to bracket a commit.
type CommitObserver interface {
	PrepareCommit()
	ResetAfterCommit()
}

// Scheduler is the deferred execution collaborator.
type Scheduler interface {
	// Defer runs fn later, never synchronously inside the call.
	Defer(fn func())

	// ShouldYield reports whether a render in progress should give control
	// back to the host before the next unit of work.
	ShouldYield() bool
}
