package fiber

import (
	"fmt"

	"github.com/petermattis/goid"

	"github.com/vango-dev/reconciler/pkg/vdom"
)

type hookKind uint8

const (
	hookState hookKind = iota
	hookEffect
	hookLayoutEffect
	hookMemo
	hookRef
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "state"
	case hookEffect:
		return "effect"
	case hookLayoutEffect:
		return "layout-effect"
	case hookMemo:
		return "memo"
	case hookRef:
		return "ref"
	default:
		return "unknown"
	}
}

// hook is one slot of a unit's hook list.
type hook struct {
	kind      hookKind
	value     any
	baseValue any
	queue     *updateQueue
	next      *hook
}

// Hooks is the handle a render function uses to call hook primitives. A
// new handle is created for every render; once the render returns, every
// primitive called on it panics with ErrInvalidPrimitiveCall.
type Hooks struct {
	root    *Root
	unit    *unit
	current *unit
	d       *dispatcher
	gid     int64

	nextCurrent *hook
	head, tail  *hook
	cursor      *hook
	index       int

	effects         []*effect
	renderUpdates   map[*updateQueue][]any
	didRenderUpdate bool
}

// ID returns the stable identity of the rendering unit. It is the same on
// every render of the same component instance.
func (h *Hooks) ID() uint64 {
	return h.unit.id
}

// Name returns the component name.
func (h *Hooks) Name() string {
	return h.unit.Name()
}

// Children returns the child descriptions passed to the component node.
func (h *Hooks) Children() []*vdom.Node {
	if h.unit.elem == nil {
		return nil
	}
	return h.unit.elem.Children
}

// use returns the active dispatcher, panicking if the handle is not
// rendering on the calling goroutine.
func (h *Hooks) use() *dispatcher {
	if h == nil {
		panic(invalidPrimitiveCall("hook called with a nil *Hooks"))
	}
	if goid.Get() != h.gid {
		panic(invalidPrimitiveCall("hook called from a goroutine other than the one rendering").
			WithUnit(h.unit.Name()))
	}
	return h.d
}

// owns reports whether q belongs to the unit this handle renders.
func (h *Hooks) owns(q *updateQueue) bool {
	return q.unit == h.unit || (h.unit.alternate != nil && q.unit == h.unit.alternate)
}

func (h *Hooks) appendHook(hk *hook) {
	if h.tail == nil {
		h.head = hk
	} else {
		h.tail.next = hk
	}
	h.tail = hk
	h.index++
}

// mountHook appends a new slot.
func (h *Hooks) mountHook(kind hookKind) *hook {
	hk := &hook{kind: kind}
	h.appendHook(hk)
	return hk
}

// updateHook clones the next committed slot into the work-in-progress
// list.
func (h *Hooks) updateHook(kind hookKind) *hook {
	cur := h.nextCurrent
	if cur == nil {
		panic(hookOrderViolation("rendered more hooks than during the previous render: extra %s hook at index %d",
			kind, h.index).WithUnit(h.unit.Name()))
	}
	if cur.kind != kind {
		panic(hookOrderViolation("hook at index %d changed from %s to %s",
			h.index, cur.kind, kind).WithUnit(h.unit.Name()))
	}
	h.nextCurrent = cur.next
	hk := &hook{
		kind:      cur.kind,
		value:     cur.value,
		baseValue: cur.baseValue,
		queue:     cur.queue,
	}
	h.appendHook(hk)
	return hk
}

// rerenderHook advances over the work-in-progress list built by the
// previous attempt of this render.
func (h *Hooks) rerenderHook(kind hookKind) *hook {
	hk := h.cursor
	if hk == nil {
		panic(hookOrderViolation("rendered more hooks during re-render: extra %s hook at index %d",
			kind, h.index).WithUnit(h.unit.Name()))
	}
	if hk.kind != kind {
		panic(hookOrderViolation("hook at index %d changed from %s to %s during re-render",
			h.index, hk.kind, kind).WithUnit(h.unit.Name()))
	}
	h.cursor = hk.next
	h.index++
	return hk
}

// beginRerender resets the handle for another attempt of the same render.
func (h *Hooks) beginRerender() {
	h.d = rerenderDispatcher
	h.cursor = h.head
	h.index = 0
	h.didRenderUpdate = false
}

// finish checks that every slot of the previous sequence was consumed.
func (h *Hooks) finish() {
	switch h.d.mode {
	case modeUpdate:
		if h.nextCurrent != nil {
			panic(hookOrderViolation("rendered fewer hooks than expected: %s hook at index %d was not called",
				h.nextCurrent.kind, h.index).WithUnit(h.unit.Name()))
		}
	case modeRerender:
		if h.cursor != nil {
			panic(hookOrderViolation("rendered fewer hooks during re-render: %s hook at index %d was not called",
				h.cursor.kind, h.index).WithUnit(h.unit.Name()))
		}
	}
}

func (h *Hooks) String() string {
	return fmt.Sprintf("Hooks(%s#%d)", h.unit.Name(), h.unit.id)
}

// Ref is a mutable box that keeps its identity across renders. Writing to
// Current does not schedule a render.
type Ref[T any] struct {
	Current T
}

// UseState declares a state slot with an initial value. It returns the
// current value and a setter whose identity is stable across renders.
func UseState[T any](h *Hooks, initial T) (T, Setter[T]) {
	hk := h.use().state(h, func() any { return initial }, basicReducer[T], true)
	return as[T](hk.value), Setter[T]{q: hk.queue}
}

// UseStateFunc is UseState with a lazy initializer. init runs exactly once,
// on the first render.
func UseStateFunc[T any](h *Hooks, init func() T) (T, Setter[T]) {
	hk := h.use().state(h, func() any { return init() }, basicReducer[T], true)
	return as[T](hk.value), Setter[T]{q: hk.queue}
}

// UseReducer declares a state slot updated through reducer. The returned
// dispatch function is stable across renders. Reducers must be pure.
func UseReducer[S, A any](h *Hooks, reducer func(S, A) S, initial S) (S, func(A)) {
	wrapped := func(state, action any) any {
		return reducer(as[S](state), as[A](action))
	}
	hk := h.use().state(h, func() any { return initial }, wrapped, false)
	q := hk.queue
	if q.dispatchFn == nil {
		q.dispatchFn = func(a A) { q.dispatch(a, NoLane) }
	}
	return as[S](hk.value), q.dispatchFn.(func(A))
}

// UseEffect declares a passive effect. setup runs after the commit that
// produced this render is visible, in a later host task. deps controls
// re-runs: nil runs after every commit, an empty Deps runs once, otherwise
// setup re-runs when any element differs by SameValue.
func UseEffect(h *Hooks, setup EffectFunc, deps Deps) {
	h.use().effect(h, hookEffect, setup, deps)
}

// UseLayoutEffect is UseEffect but runs synchronously at the end of commit,
// before control returns to the host.
func UseLayoutEffect(h *Hooks, setup EffectFunc, deps Deps) {
	h.use().effect(h, hookLayoutEffect, setup, deps)
}

// UseMemo returns compute's result, recomputing only when deps change.
func UseMemo[T any](h *Hooks, compute func() T, deps Deps) T {
	return as[T](h.use().memo(h, func() any { return compute() }, deps))
}

// UseCallback returns fn, keeping the first identity until deps change.
func UseCallback[F any](h *Hooks, fn F, deps Deps) F {
	return as[F](h.use().memo(h, func() any { return fn }, deps))
}

// UseRef returns a Ref whose identity is stable for the life of the unit.
func UseRef[T any](h *Hooks, initial T) *Ref[T] {
	return h.use().ref(h, func() any { return &Ref[T]{Current: initial} }).(*Ref[T])
}

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
