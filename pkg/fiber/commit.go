package fiber

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// CommitInfo describes one commit.
type CommitInfo struct {
	Seq      int           `json:"seq"`
	PassID   string        `json:"passId"`
	Lanes    string        `json:"lanes"`
	Units    int           `json:"units"`
	Yields   int           `json:"yields"`
	Duration time.Duration `json:"duration"`
}

// commitRoot applies the finished tree of p to the host and runs layout
// effects. It is never interrupted.
func (r *Root) commitRoot(p *pass) {
	finished := p.wip
	r.work = nil

	if !r.budget.tryAdd() {
		r.work = p
		r.discardWork("storm")
		r.pendingLanes &^= p.lanes
		r.report(updateStorm("more than " + strconv.Itoa(r.cfg.CommitBudget) +
			" commits within " + r.cfg.CommitWindow.String()))
		return
	}
	p.span.SetAttributes(
		attribute.String("pass.result", "committed"),
		attribute.Int("pass.units", p.units),
		attribute.Int("pass.yields", p.yields),
	)
	p.span.End()

	start := time.Now()
	_, span := r.cfg.Tracer.Start(p.ctx, "reconciler.commit",
		trace.WithAttributes(attribute.String("pass.id", p.id)))
	defer span.End()

	r.busy++
	defer func() { r.busy-- }()

	for q, c := range p.consumed {
		q.drop(c.n)
		q.lastRendered = c.state
	}
	for _, u := range p.rendered {
		if u.alternate != nil {
			u.alternate.lanes = u.lanes
		}
	}

	obs, _ := r.mutator.(host.CommitObserver)
	if obs != nil {
		obs.PrepareCommit()
	}
	r.commitMutations(finished)
	if obs != nil {
		obs.ResetAfterCommit()
	}

	r.current = finished
	for _, u := range p.rendered {
		u.phase = PhaseCommitted
	}
	r.pendingLanes = (r.pendingLanes &^ p.lanes) | finished.lanes | finished.childLanes

	r.runEffects(collectEffects(finished, flagLayout), hookLayoutEffect)
	r.pendingPassive = append(r.pendingPassive, collectEffects(finished, flagPassive)...)
	r.armPassive()

	d := time.Since(start)
	r.stats.Commits++
	r.stats.UnitsRendered += p.units
	r.cfg.Metrics.UnitsRendered(p.units)
	r.cfg.Metrics.Committed(d)
	r.cfg.Metrics.PassFinished("committed", time.Since(p.start))
	r.logger.Debug("pass committed",
		"pass", p.id,
		"lanes", p.lanes,
		"units", p.units,
		"yields", p.yields,
		"duration", d)

	info := CommitInfo{
		Seq:      r.stats.Commits,
		PassID:   p.id,
		Lanes:    p.lanes.String(),
		Units:    p.units,
		Yields:   p.yields,
		Duration: d,
	}
	for _, id := range sortedIDs(r.listeners) {
		r.listeners[id](info)
	}

	if r.pendingLanes != NoLane {
		r.ensureScheduled()
	}
}

// commitMutations applies the mutation flags of the finished tree in three
// passes: every deletion, then every placement, then every update. Within
// a pass units are visited in pre-order.
func (r *Root) commitMutations(finished *unit) {
	units := mutatedUnits(finished)
	for _, u := range units {
		if u.flags&flagChildDeletion != 0 {
			r.commitDeletions(u)
		}
	}
	for _, u := range units {
		if u.flags&flagPlacement != 0 {
			r.commitPlacement(u)
		}
	}
	for _, u := range units {
		if u.flags&flagUpdate != 0 {
			r.commitUpdate(u)
		}
	}
}

// mutatedUnits returns the units of the finished tree carrying mutation
// flags, in pre-order. Parent links are refreshed along the way.
func mutatedUnits(finished *unit) []*unit {
	var out []*unit
	stack := []*unit{finished}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if u.flags&mutationMask != 0 {
			out = append(out, u)
		}
		if u.subtreeFlags&mutationMask == 0 {
			continue
		}
		var kids []*unit
		for c := u.child; c != nil; c = c.sibling {
			c.parent = u
			kids = append(kids, c)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

func (r *Root) commitDeletions(u *unit) {
	parent := r.hostInstanceOf(u)
	for _, d := range u.deletions {
		r.unmountEffects(d)
		for _, t := range hostTops(d) {
			r.mutator.RemoveChild(parent, t.instance)
		}
	}
	u.deletions = nil
	u.flags &^= flagChildDeletion
}

// commitPlacement inserts the host nodes of u before its next stable host
// sibling. A new unit has its detached host subtree built first; a
// reused unit is moved. Host nodes of a moved unit that are placed on
// their own later in the pass are left to that placement.
func (r *Root) commitPlacement(u *unit) {
	moved := u.alternate != nil
	if !moved {
		r.buildHostSubtree(u)
	}
	parent := r.hostParent(u)
	before := hostSibling(u)
	for _, t := range hostTops(u) {
		if moved && t != u && (t.flags&flagPlacement != 0 || t.instance == nil) {
			continue
		}
		r.mutator.InsertBefore(parent, t.instance, before)
	}
	u.flags &^= flagPlacement
}

func (r *Root) commitUpdate(u *unit) {
	switch u.kind {
	case unitHost:
		if len(u.changes) > 0 {
			r.mutator.CommitUpdate(u.instance, u.changes)
		}
		u.changes = nil
	case unitText:
		r.mutator.CommitText(u.instance, u.text)
	}
	u.flags &^= flagUpdate
}

// buildHostSubtree creates the host nodes of a newly mounted subtree and
// attaches them to each other in document order. The top nodes stay
// detached.
func (r *Root) buildHostSubtree(u *unit) {
	for _, n := range preOrder(u) {
		switch n.kind {
		case unitHost:
			n.instance = r.mutator.CreateElement(n.tag, vdom.HostProps(n.props))
		case unitText:
			n.instance = r.mutator.CreateText(n.text)
		default:
			continue
		}
		if n == u {
			continue
		}
		for p := n.parent; p != nil; p = p.parent {
			if p.kind == unitHost {
				r.mutator.AppendChild(p.instance, n.instance)
				break
			}
			if p == u {
				break
			}
		}
	}
}

// hostParent returns the host node the host nodes of u attach to.
func (r *Root) hostParent(u *unit) host.Instance {
	for p := u.parent; p != nil; p = p.parent {
		switch p.kind {
		case unitHost:
			return p.instance
		case unitRoot:
			return r.container
		}
	}
	return r.container
}

// hostInstanceOf returns the host node children of u attach to.
func (r *Root) hostInstanceOf(u *unit) host.Instance {
	switch u.kind {
	case unitHost:
		return u.instance
	case unitRoot:
		return r.container
	}
	return r.hostParent(u)
}

// hostSibling returns the first host node after u under the same host
// parent that is not itself being placed, or nil to append.
func hostSibling(u *unit) host.Instance {
	node := u
siblings:
	for {
		for node.sibling == nil {
			if node.parent == nil || node.parent.isHostParent() {
				return nil
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling
		for !node.isHost() {
			if node.flags&flagPlacement != 0 || node.child == nil {
				continue siblings
			}
			node.child.parent = node
			node = node.child
		}
		if node.flags&flagPlacement == 0 {
			return node.instance
		}
	}
}

// flushPassiveEffects runs the passive effects of the last commit.
func (r *Root) flushPassiveEffects() {
	if len(r.pendingPassive) == 0 {
		return
	}
	units := r.pendingPassive
	r.pendingPassive = nil

	_, span := r.cfg.Tracer.Start(context.Background(), "reconciler.passive_effects",
		trace.WithAttributes(attribute.Int("units", len(units))))
	defer span.End()

	r.busy++
	defer func() { r.busy-- }()
	r.runEffects(units, hookEffect)
}

func sortedIDs(m map[int]func(CommitInfo)) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
