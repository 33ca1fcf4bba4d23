package fiber

import (
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

type unitKind uint8

const (
	unitRoot unitKind = iota
	unitHost
	unitText
	unitFragment
	unitComponent
)

func (k unitKind) String() string {
	switch k {
	case unitRoot:
		return "root"
	case unitHost:
		return "host"
	case unitText:
		return "text"
	case unitFragment:
		return "fragment"
	case unitComponent:
		return "component"
	default:
		return "unknown"
	}
}

// flags record the work commit must do for a unit.
type flags uint8

const (
	flagPlacement flags = 1 << iota
	flagUpdate
	flagChildDeletion
	flagPassive
	flagLayout

	mutationMask = flagPlacement | flagUpdate | flagChildDeletion
	effectMask   = flagPassive | flagLayout
)

// Phase is the work state of a unit within a render pass.
type Phase uint8

const (
	PhasePending Phase = iota
	PhaseBegan
	PhaseChildrenVisited
	PhaseCompleted
	PhaseCommitted
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseBegan:
		return "began"
	case PhaseChildrenVisited:
		return "children-visited"
	case PhaseCompleted:
		return "completed"
	case PhaseCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// unit is one node of the render tree. Every unit that has been rendered
// at least twice has an alternate: one of the pair belongs to the
// committed tree, the other is reused as the work-in-progress copy.
type unit struct {
	id   uint64
	kind unitKind
	tag  string
	comp *Component
	key  string

	elem     *vdom.Node
	props    vdom.Props
	text     string
	instance host.Instance

	parent  *unit
	child   *unit
	sibling *unit
	index   int

	alternate *unit

	flags        flags
	subtreeFlags flags
	deletions    []*unit
	changes      []vdom.PropChange

	hooks   *hook
	effects []*effect

	lanes      Lane
	childLanes Lane

	phase     Phase
	unmounted bool
}

// Name returns the component name, host tag or a kind label.
func (u *unit) Name() string {
	switch u.kind {
	case unitComponent:
		return u.comp.ComponentName()
	case unitHost:
		return u.tag
	case unitText:
		return "#text"
	case unitFragment:
		return "#fragment"
	default:
		return "#root"
	}
}

func (u *unit) isHost() bool {
	return u.kind == unitHost || u.kind == unitText
}

func (u *unit) isHostParent() bool {
	return u.kind == unitHost || u.kind == unitRoot
}

func kindOf(n *vdom.Node) unitKind {
	switch n.Kind {
	case vdom.KindText:
		return unitText
	case vdom.KindFragment:
		return unitFragment
	case vdom.KindComponent:
		return unitComponent
	default:
		return unitHost
	}
}

// matches reports whether u can be reused for the description n.
func (u *unit) matches(n *vdom.Node) bool {
	return vdom.SameType(u.elem, n)
}

func (r *Root) newUnit(n *vdom.Node) *unit {
	r.nextID++
	u := &unit{
		id:    r.nextID,
		kind:  kindOf(n),
		tag:   n.Tag,
		key:   n.Key,
		elem:  n,
		props: n.Props,
		text:  n.Text,
	}
	if u.kind == unitComponent {
		c, ok := n.Comp.(*Component)
		if !ok {
			panic("fiber: component nodes must be created from a *fiber.Component")
		}
		u.comp = c
	}
	return u
}

// createWorkInProgress returns the alternate of current prepared for a new
// pass with the description n. The alternate is allocated on first use.
func createWorkInProgress(current *unit, n *vdom.Node) *unit {
	wip := current.alternate
	if wip == nil {
		wip = &unit{
			id:   current.id,
			kind: current.kind,
			tag:  current.tag,
			comp: current.comp,
			key:  current.key,
		}
		wip.alternate = current
		current.alternate = wip
	} else {
		wip.flags = 0
		wip.subtreeFlags = 0
		wip.deletions = nil
		wip.changes = nil
	}

	wip.elem = n
	if n != nil {
		wip.props = n.Props
		wip.text = n.Text
	} else {
		wip.props = current.props
		wip.text = current.text
	}
	wip.instance = current.instance
	wip.child = current.child
	wip.sibling = current.sibling
	wip.parent = current.parent
	wip.index = current.index
	wip.hooks = current.hooks
	wip.effects = current.effects
	wip.lanes = current.lanes
	wip.childLanes = current.childLanes
	wip.phase = PhasePending
	wip.unmounted = current.unmounted
	return wip
}

// markUnmounted flags u and its alternate as destroyed. Dispatches to a
// destroyed unit are dropped.
func markUnmounted(u *unit) {
	u.unmounted = true
	if u.alternate != nil {
		u.alternate.unmounted = true
	}
}

// preOrder returns the subtree rooted at u in pre-order, children left to
// right, using an explicit stack.
func preOrder(u *unit) []*unit {
	var out []*unit
	stack := []*unit{u}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)

		var kids []*unit
		for c := n.child; c != nil; c = c.sibling {
			c.parent = n
			kids = append(kids, c)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// hostTops returns the outermost host units of the subtree rooted at u, in
// document order.
func hostTops(u *unit) []*unit {
	var out []*unit
	stack := []*unit{u}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.isHost() {
			out = append(out, n)
			continue
		}
		var kids []*unit
		for c := n.child; c != nil; c = c.sibling {
			kids = append(kids, c)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
