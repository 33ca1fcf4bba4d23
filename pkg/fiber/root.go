package fiber

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Root owns one render tree mounted into a host container. All methods are
// safe for concurrent use; render functions and effects run with the root
// locked and may call back into it from the same goroutine.
type Root struct {
	mu        reentrantMutex
	cfg       Config
	logger    *slog.Logger
	container host.Instance
	mutator   host.Mutator

	current *unit
	element *vdom.Node
	nextID  uint64

	pendingLanes      Lane
	laneOverride      Lane
	work              *pass
	callbackScheduled bool
	batchDepth        int

	rendering      *Hooks
	busy           int
	flushing       bool
	unmounted      bool
	pendingPassive []*unit
	passiveArmed   bool

	budget    *slidingWindow
	errSink   *[]error
	stats     Stats
	listeners map[int]func(CommitInfo)
	nextSub   int
}

// NewRoot creates a root rendering into container through mutator.
func NewRoot(container host.Instance, mutator host.Mutator, opts ...Option) *Root {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()

	r := &Root{
		cfg:       cfg,
		logger:    cfg.Logger,
		container: container,
		mutator:   mutator,
		listeners: make(map[int]func(CommitInfo)),
	}
	r.current = &unit{kind: unitRoot, instance: container, phase: PhaseCommitted}
	if cfg.CommitBudget > 0 {
		r.budget = newSlidingWindow(cfg.CommitWindow, cfg.CommitBudget)
	}
	return r
}

// Scheduler returns the host scheduler the root defers work to.
func (r *Root) Scheduler() host.Scheduler {
	return r.cfg.Scheduler
}

// Update replaces the description rendered into the container. The render
// happens in a deferred flush.
func (r *Root) Update(node *vdom.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unmounted {
		return rootUnmounted()
	}
	r.element = node
	r.scheduleUpdate(r.current, r.lane(NoLane))
	return nil
}

// Render is Update followed by Flush.
func (r *Root) Render(node *vdom.Node) error {
	if err := r.Update(node); err != nil {
		return err
	}
	return r.Flush()
}

// Flush synchronously renders and commits all pending work without
// yielding, runs pending passive effects, and returns the errors reported
// meanwhile joined with errors.Join.
func (r *Root) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy > 0 || r.flushing {
		return reentrantFlush()
	}
	r.flushing = true
	defer func() { r.flushing = false }()

	return r.collect(func() {
		passes := 0
		for !r.unmounted {
			r.flushPassiveEffects()
			if r.work == nil && r.pendingLanes == 0 {
				return
			}
			if passes >= r.cfg.MaxNestedPasses {
				r.discardWork("storm")
				r.pendingLanes = NoLane
				r.report(updateStorm("more than " + strconv.Itoa(r.cfg.MaxNestedPasses) + " nested passes in one flush"))
				return
			}
			passes++
			r.performWork(false)
		}
	})
}

// Batch runs fn and coalesces every update dispatched inside it, including
// nested batches, into one deferred flush armed when the outermost batch
// returns.
func (r *Root) Batch(fn func()) {
	r.mu.Lock()
	r.batchDepth++
	defer func() {
		r.batchDepth--
		if r.batchDepth == 0 && r.pendingLanes != NoLane {
			r.ensureScheduled()
		}
		r.mu.Unlock()
	}()
	fn()
}

// WithLane runs fn with lane as the lane of updates dispatched without
// one.
func (r *Root) WithLane(lane Lane, fn func()) {
	r.mu.Lock()
	prev := r.laneOverride
	r.laneOverride = lane
	defer func() {
		r.laneOverride = prev
		r.mu.Unlock()
	}()
	fn()
}

// Abandon discards the render pass in progress, if any. The committed tree
// and the host output are untouched and no pending update is lost; a fresh
// pass is scheduled. It reports whether a pass was discarded.
func (r *Root) Abandon() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.work == nil || r.busy > 0 {
		return false
	}
	r.discardWork("abandoned")
	if r.pendingLanes != NoLane {
		r.ensureScheduled()
	}
	return true
}

// Unmount tears down the whole tree: every mounted effect teardown runs,
// descendants first and last sibling first, then the host nodes are
// removed. The root cannot be used afterwards.
func (r *Root) Unmount() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unmounted {
		return nil
	}
	if r.busy > 0 {
		return reentrantFlush()
	}
	return r.collect(func() {
		r.flushPassiveEffects()
		r.discardWork("abandoned")

		var children []*unit
		for c := r.current.child; c != nil; c = c.sibling {
			children = append(children, c)
		}

		r.busy++
		r.unmountEffects(r.current)
		r.busy--

		obs, _ := r.mutator.(host.CommitObserver)
		if obs != nil {
			obs.PrepareCommit()
		}
		for _, c := range children {
			for _, t := range hostTops(c) {
				r.mutator.RemoveChild(r.container, t.instance)
			}
		}
		if obs != nil {
			obs.ResetAfterCommit()
		}

		r.current.child = nil
		if r.current.alternate != nil {
			r.current.alternate.child = nil
		}
		r.element = nil
		r.pendingLanes = NoLane
		r.unmounted = true
	})
}

// Stats returns a copy of the root counters.
func (r *Root) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.stats
	st.RecentCommits = r.budget.count()
	return st
}

// PendingLanes returns the lanes with work not yet committed.
func (r *Root) PendingLanes() Lane {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingLanes
}

// Working reports whether a render pass is in progress.
func (r *Root) Working() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.work != nil
}

// OnCommit registers fn to be called after every commit. The returned
// function removes it.
func (r *Root) OnCommit(fn func(CommitInfo)) (remove func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// collect runs fn with an error sink and returns what was reported.
func (r *Root) collect(fn func()) error {
	var errs []error
	prev := r.errSink
	r.errSink = &errs
	defer func() { r.errSink = prev }()
	fn()
	return errors.Join(errs...)
}

// report delivers err to the error sink of the running Flush, if any, and
// to the error handler.
func (r *Root) report(err error) {
	if r.errSink != nil {
		*r.errSink = append(*r.errSink, err)
	}
	if r.cfg.OnError != nil {
		r.cfg.OnError(err)
		return
	}
	r.logger.Error("reconciler error", "error", err)
}

func (r *Root) lane(lane Lane) Lane {
	if lane != NoLane {
		return lane
	}
	if r.laneOverride != NoLane {
		return r.laneOverride
	}
	return r.cfg.DefaultLane
}
