package fiber

type dispatchMode uint8

const (
	modeMount dispatchMode = iota
	modeUpdate
	modeRerender
	modeInvalid
)

// dispatcher is the capability table behind the hook primitives. One is
// installed on a Hooks handle for each render attempt.
type dispatcher struct {
	mode   dispatchMode
	state  func(h *Hooks, init func() any, reducer reducerFunc, basic bool) *hook
	effect func(h *Hooks, kind hookKind, setup EffectFunc, deps Deps)
	memo   func(h *Hooks, compute func() any, deps Deps) any
	ref    func(h *Hooks, init func() any) any
}

var (
	mountDispatcher = &dispatcher{
		mode:   modeMount,
		state:  mountState,
		effect: mountEffect,
		memo:   mountMemo,
		ref:    mountRef,
	}
	updateDispatcher = &dispatcher{
		mode:   modeUpdate,
		state:  updateState,
		effect: updateEffect,
		memo:   updateMemo,
		ref:    updateRef,
	}
	rerenderDispatcher = &dispatcher{
		mode:   modeRerender,
		state:  rerenderState,
		effect: rerenderEffect,
		memo:   rerenderMemo,
		ref:    rerenderRef,
	}
	invalidDispatcher = &dispatcher{
		mode: modeInvalid,
		state: func(*Hooks, func() any, reducerFunc, bool) *hook {
			panic(invalidPrimitiveCall("UseState called outside of render"))
		},
		effect: func(*Hooks, hookKind, EffectFunc, Deps) {
			panic(invalidPrimitiveCall("UseEffect called outside of render"))
		},
		memo: func(*Hooks, func() any, Deps) any {
			panic(invalidPrimitiveCall("UseMemo called outside of render"))
		},
		ref: func(*Hooks, func() any) any {
			panic(invalidPrimitiveCall("UseRef called outside of render"))
		},
	}
)

// State

func mountState(h *Hooks, init func() any, reducer reducerFunc, basic bool) *hook {
	hk := h.mountHook(hookState)
	v := init()
	hk.value = v
	hk.baseValue = v
	hk.queue = &updateQueue{
		root:         h.root,
		unit:         h.unit,
		reducer:      reducer,
		basic:        basic,
		lastRendered: v,
	}
	return hk
}

func updateState(h *Hooks, _ func() any, reducer reducerFunc, _ bool) *hook {
	hk := h.updateHook(hookState)
	q := hk.queue
	q.reducer = reducer

	n := len(q.pending)
	if n == 0 {
		return hk
	}
	state := hk.baseValue
	for _, u := range q.pending[:n] {
		if u.hasEager {
			state = u.eager
		} else {
			state = reducer(state, u.action)
		}
	}
	hk.value = state
	hk.baseValue = state
	h.root.work.consume(q, n, state)
	return hk
}

func rerenderState(h *Hooks, _ func() any, reducer reducerFunc, _ bool) *hook {
	hk := h.rerenderHook(hookState)
	q := hk.queue
	q.reducer = reducer

	actions := h.renderUpdates[q]
	if len(actions) == 0 {
		return hk
	}
	delete(h.renderUpdates, q)
	state := hk.value
	for _, a := range actions {
		state = reducer(state, a)
	}
	hk.value = state
	hk.baseValue = state
	h.root.work.consume(q, 0, state)
	return hk
}

// Effects

func mountEffect(h *Hooks, kind hookKind, setup EffectFunc, deps Deps) {
	hk := h.mountHook(kind)
	e := &effect{
		kind:     kind,
		setup:    setup,
		deps:     deps,
		inst:     &effectInstance{},
		needsRun: true,
	}
	hk.value = e
	h.effects = append(h.effects, e)
}

func updateEffect(h *Hooks, kind hookKind, setup EffectFunc, deps Deps) {
	hk := h.updateHook(kind)
	prev := hk.value.(*effect)
	e := &effect{
		kind:     kind,
		setup:    setup,
		deps:     deps,
		inst:     prev.inst,
		prevDeps: prev.deps,
		hasPrev:  true,
	}
	e.needsRun = !skipEffect(deps, prev.deps)
	hk.value = e
	h.effects = append(h.effects, e)
}

func rerenderEffect(h *Hooks, kind hookKind, setup EffectFunc, deps Deps) {
	hk := h.rerenderHook(kind)
	e := hk.value.(*effect)
	e.setup = setup
	e.deps = deps
	if e.hasPrev {
		e.needsRun = !skipEffect(deps, e.prevDeps)
	}
}

// skipEffect reports whether an effect with previous deps prev may skip its
// re-run.
func skipEffect(next, prev Deps) bool {
	return next != nil && prev != nil && depsEqual(next, prev)
}

// Memo

type memoEntry struct {
	value any
	deps  Deps
}

func mountMemo(h *Hooks, compute func() any, deps Deps) any {
	hk := h.mountHook(hookMemo)
	v := compute()
	hk.value = &memoEntry{value: v, deps: deps}
	return v
}

func updateMemo(h *Hooks, compute func() any, deps Deps) any {
	return recompute(h.updateHook(hookMemo), compute, deps)
}

func rerenderMemo(h *Hooks, compute func() any, deps Deps) any {
	return recompute(h.rerenderHook(hookMemo), compute, deps)
}

func recompute(hk *hook, compute func() any, deps Deps) any {
	prev := hk.value.(*memoEntry)
	if skipEffect(deps, prev.deps) {
		return prev.value
	}
	v := compute()
	hk.value = &memoEntry{value: v, deps: deps}
	return v
}

// Refs

func mountRef(h *Hooks, init func() any) any {
	hk := h.mountHook(hookRef)
	hk.value = init()
	return hk.value
}

func updateRef(h *Hooks, _ func() any) any {
	return h.updateHook(hookRef).value
}

func rerenderRef(h *Hooks, _ func() any) any {
	return h.rerenderHook(hookRef).value
}
