package fiber

type reducerFunc func(state, action any) any

// basicReducer replaces the state with the action, or applies the action
// if it is a func(T) T.
func basicReducer[T any](state, action any) any {
	if fn, ok := action.(func(T) T); ok {
		return fn(as[T](state))
	}
	return action
}

type update struct {
	action   any
	lane     Lane
	eager    any
	hasEager bool
}

// updateQueue holds the pending actions of one state slot. It is shared by
// the slot and its clones in both trees. A render folds a prefix of
// pending; the prefix is dropped only when that render commits.
type updateQueue struct {
	root         *Root
	unit         *unit
	pending      []*update
	reducer      reducerFunc
	basic        bool
	lastRendered any
	dispatchFn   any
}

func (q *updateQueue) dispatch(action any, lane Lane) {
	q.root.dispatch(q, action, lane)
}

// drop removes the first n pending updates.
func (q *updateQueue) drop(n int) {
	if n <= 0 {
		return
	}
	if n >= len(q.pending) {
		q.pending = nil
		return
	}
	rest := make([]*update, len(q.pending)-n)
	copy(rest, q.pending[n:])
	q.pending = rest
}

// Setter updates a state slot declared with UseState. Setters are
// comparable and stable across renders. They may be called from any
// goroutine; calls made during the owning component's own render are
// applied before that render returns.
type Setter[T any] struct {
	q *updateQueue
}

// Set replaces the state with v.
func (s Setter[T]) Set(v T) {
	s.queue().dispatch(v, NoLane)
}

// Update replaces the state with fn applied to the previous state. Queued
// functions are applied in dispatch order.
func (s Setter[T]) Update(fn func(T) T) {
	s.queue().dispatch(fn, NoLane)
}

// SetWithLane is Set with an explicit priority lane.
func (s Setter[T]) SetWithLane(v T, lane Lane) {
	s.queue().dispatch(v, lane)
}

// UpdateWithLane is Update with an explicit priority lane.
func (s Setter[T]) UpdateWithLane(fn func(T) T, lane Lane) {
	s.queue().dispatch(fn, lane)
}

func (s Setter[T]) queue() *updateQueue {
	if s.q == nil {
		panic(invalidPrimitiveCall("zero Setter used; setters come from UseState"))
	}
	return s.q
}
