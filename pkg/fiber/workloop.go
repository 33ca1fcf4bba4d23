package fiber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/petermattis/goid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/pkg/vdom"
)

// pass is one render pass over the work-in-progress tree.
type pass struct {
	id    string
	lanes Lane
	wip   *unit
	next  *unit

	consumed map[*updateQueue]*consumption
	rendered []*unit
	units    int
	yields   int

	start time.Time
	ctx   context.Context
	span  trace.Span
}

// consumption records how a render folded an update queue: the number of
// pending updates folded and the resulting state.
type consumption struct {
	n     int
	state any
}

func (p *pass) consume(q *updateQueue, n int, state any) {
	c := p.consumed[q]
	if c == nil {
		c = &consumption{}
		p.consumed[q] = c
	}
	if n > c.n {
		c.n = n
	}
	c.state = state
}

// prepareFreshStack starts a pass over every pending lane.
func (r *Root) prepareFreshStack() *pass {
	id := ulid.Make().String()
	ctx, span := r.cfg.Tracer.Start(context.Background(), "reconciler.render",
		trace.WithAttributes(
			attribute.String("pass.id", id),
			attribute.String("pass.lanes", r.pendingLanes.String()),
		))

	wip := createWorkInProgress(r.current, r.current.elem)
	p := &pass{
		id:       id,
		lanes:    r.pendingLanes,
		wip:      wip,
		next:     wip,
		consumed: make(map[*updateQueue]*consumption),
		start:    time.Now(),
		ctx:      ctx,
		span:     span,
	}
	r.work = p
	r.stats.Passes++
	r.logger.Debug("pass started", "pass", id, "lanes", p.lanes)
	return p
}

// performWork continues the pass in progress, or starts one, and commits
// it when the tree is complete.
func (r *Root) performWork(canYield bool) {
	r.flushPassiveEffects()
	if r.unmounted {
		return
	}
	p := r.work
	if p == nil {
		if r.pendingLanes == NoLane {
			return
		}
		p = r.prepareFreshStack()
	}

	if err := r.workLoop(p, canYield); err != nil {
		r.abortPass(p, err)
		return
	}
	if p.next != nil {
		p.yields++
		r.stats.Yields++
		r.cfg.Metrics.Yielded()
		return
	}
	r.commitRoot(p)
}

// workLoop performs units of work until the tree is complete or, when
// canYield is set, the scheduler asks to yield. At least one unit is
// performed per call.
func (r *Root) workLoop(p *pass, canYield bool) error {
	progressed := false
	for p.next != nil {
		if canYield && progressed && r.cfg.Scheduler.ShouldYield() {
			return nil
		}
		next, err := r.performUnitOfWork(p, p.next)
		if err != nil {
			return err
		}
		p.next = next
		progressed = true
	}
	return nil
}

func (r *Root) performUnitOfWork(p *pass, u *unit) (next *unit, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = renderPanic(u.Name(), rec)
		}
	}()

	u.phase = PhaseBegan
	child, err := r.beginWork(p, u.alternate, u)
	if err != nil {
		return nil, err
	}
	if child != nil {
		return child, nil
	}
	return r.completeUnitOfWork(p, u), nil
}

// completeUnitOfWork completes u and its ancestors until one has a sibling
// left to begin. It returns that sibling, or nil once the root completes.
func (r *Root) completeUnitOfWork(p *pass, u *unit) *unit {
	n := u
	for {
		r.completeWork(n)
		if n == p.wip {
			return nil
		}
		if n.sibling != nil {
			return n.sibling
		}
		n = n.parent
	}
}

// beginWork renders wip and reconciles its children. It returns the first
// child to work on, or nil if the subtree needs no more work.
func (r *Root) beginWork(p *pass, current, wip *unit) (*unit, error) {
	if current != nil && wip.lanes == NoLane && current.elem == wip.elem {
		if wip.childLanes == NoLane {
			return nil, nil
		}
		cloneChildUnits(current, wip)
		return wip.child, nil
	}

	wip.lanes = NoLane
	p.rendered = append(p.rendered, wip)
	p.units++

	switch wip.kind {
	case unitRoot:
		r.reconcileChildren(current, wip, []*vdom.Node{r.element})
	case unitHost, unitFragment:
		r.reconcileChildren(current, wip, wip.elem.Children)
	case unitComponent:
		out, err := r.renderComponent(current, wip)
		if err != nil {
			return nil, err
		}
		r.reconcileChildren(current, wip, []*vdom.Node{out})
	case unitText:
		return nil, nil
	}
	return wip.child, nil
}

// renderComponent calls the render function of wip, repeating it while it
// updates its own state, and installs the resulting hook list.
func (r *Root) renderComponent(current, wip *unit) (*vdom.Node, error) {
	h := &Hooks{
		root:    r,
		unit:    wip,
		current: current,
		gid:     goid.Get(),
	}
	if current == nil {
		h.d = mountDispatcher
	} else {
		h.d = updateDispatcher
		h.nextCurrent = current.hooks
	}

	prev := r.rendering
	r.rendering = h
	defer func() {
		r.rendering = prev
		h.d = invalidDispatcher
	}()

	out, err := r.callRender(h, wip)
	for attempts := 0; err == nil && h.didRenderUpdate; attempts++ {
		if attempts >= r.cfg.MaxRerenders {
			return nil, tooManyRerenders(wip.Name(), r.cfg.MaxRerenders)
		}
		h.beginRerender()
		out, err = r.callRender(h, wip)
	}
	if err != nil {
		return nil, err
	}

	wip.hooks = h.head
	wip.effects = h.effects
	for _, e := range h.effects {
		if !e.needsRun {
			continue
		}
		if e.kind == hookLayoutEffect {
			wip.flags |= flagLayout
		} else {
			wip.flags |= flagPassive
		}
	}
	return out, nil
}

// callRender runs one render attempt, converting panics into errors.
func (r *Root) callRender(h *Hooks, u *unit) (out *vdom.Node, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if e, ok := misuse(rec); ok {
			if e.Unit == "" {
				e = e.WithUnit(u.Name())
			}
			if errors.Is(e, ErrHookOrderViolation) {
				r.cfg.Metrics.HookViolation()
			}
			err = e
			return
		}
		err = renderPanic(u.Name(), rec)
	}()

	out = u.comp.render(h, u.props)
	h.finish()
	return out, nil
}

// completeWork computes the host changes of wip and bubbles child flags
// and lanes.
func (r *Root) completeWork(wip *unit) {
	wip.phase = PhaseChildrenVisited
	current := wip.alternate

	switch wip.kind {
	case unitHost:
		if current != nil && wip.instance != nil {
			wip.changes = vdom.DiffProps(current.props, wip.props)
			if len(wip.changes) > 0 {
				wip.flags |= flagUpdate
			}
		}
	case unitText:
		if current != nil && wip.instance != nil && current.text != wip.text {
			wip.flags |= flagUpdate
		}
	}

	// A bailed-out subtree still points at the committed children.
	if current == nil || wip.child == nil || wip.child != current.child {
		var sub flags
		var lanes Lane
		for c := wip.child; c != nil; c = c.sibling {
			sub |= c.flags | c.subtreeFlags
			lanes |= c.lanes | c.childLanes
			c.parent = wip
		}
		wip.subtreeFlags = sub
		wip.childLanes = lanes
	}
	wip.phase = PhaseCompleted
}

// cloneChildUnits gives a bailed-out wip its own copies of the committed
// children so that work below it can proceed.
func cloneChildUnits(current, wip *unit) {
	var prev *unit
	for c := current.child; c != nil; c = c.sibling {
		n := createWorkInProgress(c, c.elem)
		n.parent = wip
		if prev == nil {
			wip.child = n
		} else {
			prev.sibling = n
		}
		prev = n
	}
	if prev != nil {
		prev.sibling = nil
	}
}

// abortPass discards the pass after a render error. The lanes it was
// rendering are dropped; the committed tree is unchanged.
func (r *Root) abortPass(p *pass, err error) {
	p.span.RecordError(err)
	p.span.SetStatus(codes.Error, err.Error())
	r.discardWork("aborted")
	r.pendingLanes &^= p.lanes
	r.report(err)
}

// discardWork throws away the pass in progress.
func (r *Root) discardWork(result string) {
	p := r.work
	if p == nil {
		return
	}
	r.work = nil
	p.span.SetAttributes(attribute.String("pass.result", result))
	p.span.End()

	switch result {
	case "preempted":
		r.stats.Preemptions++
	case "abandoned":
		r.stats.Abandoned++
	case "aborted", "storm":
		r.stats.Aborted++
	}
	r.cfg.Metrics.PassFinished(result, time.Since(p.start))
	r.logger.Debug("pass discarded", "pass", p.id, "result", result, "units", p.units)
}

func (p *pass) String() string {
	return fmt.Sprintf("pass %s lanes=%s units=%d yields=%d", p.id, p.lanes, p.units, p.yields)
}
