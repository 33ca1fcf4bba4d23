package fiber

// Cleanup is returned by an effect setup and runs before the next setup of
// the same effect, and when the unit is destroyed.
type Cleanup func()

// EffectFunc is an effect setup. It may return nil.
type EffectFunc func() Cleanup

// Deps is an effect or memo dependency list.
type Deps []any

// effectInstance holds the teardown of a mounted effect. It is shared by
// every render's record of the same effect slot.
type effectInstance struct {
	teardown Cleanup
}

// effect is the record an effect slot produces on each render.
type effect struct {
	kind     hookKind
	setup    EffectFunc
	deps     Deps
	prevDeps Deps
	hasPrev  bool
	inst     *effectInstance
	needsRun bool
}

func (e *effect) phase() string {
	if e.kind == hookLayoutEffect {
		return "layout"
	}
	return "passive"
}

// runTeardown runs and clears the mounted teardown. Panics are recovered
// and reported.
func (r *Root) runTeardown(u *unit, e *effect) {
	fn := e.inst.teardown
	if fn == nil {
		return
	}
	e.inst.teardown = nil
	r.guardEffect(u, e, "teardown", fn)
}

// runSetup runs the setup and stores its teardown.
func (r *Root) runSetup(u *unit, e *effect) {
	if e.setup == nil {
		return
	}
	r.guardEffect(u, e, "setup", func() {
		e.inst.teardown = e.setup()
	})
	r.stats.EffectsRun++
	r.cfg.Metrics.EffectRan(e.phase())
}

func (r *Root) guardEffect(u *unit, e *effect, step string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := effectFailure(u.Name(), e.phase(), step, rec)
			r.stats.EffectFailures++
			r.cfg.Metrics.EffectFailed(e.phase())
			r.report(err)
		}
	}()
	fn()
}

// collectEffects returns the units of the finished tree that have effects
// of kind to run, in post-order: children before parents, siblings left
// to right.
func collectEffects(root *unit, flag flags) []*unit {
	var pre []*unit
	stack := []*unit{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.flags&flag != 0 {
			pre = append(pre, n)
		}
		if n.subtreeFlags&flag == 0 {
			continue
		}
		// Children pushed left to right are visited right to left;
		// reversing that pre-order yields the post-order.
		for c := n.child; c != nil; c = c.sibling {
			c.parent = n
			stack = append(stack, c)
		}
	}
	for i, j := 0, len(pre)-1; i < j; i, j = i+1, j-1 {
		pre[i], pre[j] = pre[j], pre[i]
	}
	return pre
}

// runEffects runs the effects of kind for units: every teardown first,
// then every setup.
func (r *Root) runEffects(units []*unit, kind hookKind) {
	for _, u := range units {
		if u.unmounted {
			continue
		}
		for _, e := range u.effects {
			if e.kind == kind && e.needsRun {
				r.runTeardown(u, e)
			}
		}
	}
	for _, u := range units {
		if u.unmounted {
			continue
		}
		for _, e := range u.effects {
			if e.kind == kind && e.needsRun {
				r.runSetup(u, e)
			}
		}
	}
}

// unmountEffects runs every mounted teardown of the subtree rooted at u:
// descendants before ancestors, last child first, and within a unit in
// reverse registration order. Units are marked unmounted.
func (r *Root) unmountEffects(u *unit) {
	units := preOrder(u)
	for i := len(units) - 1; i >= 0; i-- {
		n := units[i]
		for j := len(n.effects) - 1; j >= 0; j-- {
			r.runTeardown(n, n.effects[j])
		}
		markUnmounted(n)
	}
}
