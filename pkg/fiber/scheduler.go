package fiber

// dispatch enqueues action on q. It is the single entry point of setters
// and reducer dispatch functions.
func (r *Root) dispatch(q *updateQueue, action any, lane Lane) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unmounted || q.unit.unmounted {
		r.logger.Debug("update dropped", "unit", q.unit.Name(), "reason", "unmounted")
		return
	}
	lane = r.lane(lane)

	// An update to the component currently rendering is applied by
	// re-running its render before the render returns.
	if h := r.rendering; h != nil && h.owns(q) {
		if h.renderUpdates == nil {
			h.renderUpdates = make(map[*updateQueue][]any)
		}
		h.renderUpdates[q] = append(h.renderUpdates[q], action)
		h.didRenderUpdate = true
		return
	}

	u := &update{action: action, lane: lane}
	if q.basic && r.work == nil && len(q.pending) == 0 && idle(q.unit) {
		eager := q.reducer(q.lastRendered, action)
		if SameValue(eager, q.lastRendered) {
			r.stats.EagerBailouts++
			r.cfg.Metrics.EagerBailout()
			return
		}
		u.eager, u.hasEager = eager, true
	}

	q.pending = append(q.pending, u)
	if !r.scheduleUpdate(q.unit, lane) {
		q.pending = q.pending[:len(q.pending)-1]
		r.logger.Debug("update dropped", "unit", q.unit.Name(), "reason", "detached")
	}
}

// idle reports whether neither copy of u has pending lanes.
func idle(u *unit) bool {
	if u.lanes != NoLane {
		return false
	}
	return u.alternate == nil || u.alternate.lanes == NoLane
}

// scheduleUpdate marks lane on u and on the child lanes of its ancestors,
// in both trees, then arms a flush. It returns false if u is no longer
// attached to the root.
func (r *Root) scheduleUpdate(u *unit, lane Lane) bool {
	u.lanes |= lane
	if u.alternate != nil {
		u.alternate.lanes |= lane
	}
	top := u
	for p := u.parent; p != nil; p = p.parent {
		p.childLanes |= lane
		if p.alternate != nil {
			p.alternate.childLanes |= lane
		}
		top = p
	}
	if top.kind != unitRoot {
		return false
	}

	r.pendingLanes |= lane
	if r.work != nil && r.rendering == nil && r.busy == 0 && lane.preempts(r.work.lanes) {
		r.logger.Debug("pass preempted", "pass", r.work.id, "running", r.work.lanes, "incoming", lane)
		r.discardWork("preempted")
	}
	r.ensureScheduled()
	return true
}

// ensureScheduled arms at most one deferred flush.
func (r *Root) ensureScheduled() {
	if r.batchDepth > 0 || r.callbackScheduled || r.unmounted {
		return
	}
	r.callbackScheduled = true
	r.cfg.Scheduler.Defer(r.performWorkTask)
}

// performWorkTask is the deferred flush. It renders until the scheduler
// asks to yield, re-arming itself while work remains.
func (r *Root) performWorkTask() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbackScheduled = false
	if r.unmounted || r.flushing {
		return
	}
	if r.busy > 0 {
		r.ensureScheduled()
		return
	}
	r.performWork(true)
	if r.work != nil {
		r.ensureScheduled()
	}
}

// armPassive schedules the deferred passive effect flush.
func (r *Root) armPassive() {
	if r.passiveArmed || len(r.pendingPassive) == 0 {
		return
	}
	r.passiveArmed = true
	r.cfg.Scheduler.Defer(r.passiveTask)
}

func (r *Root) passiveTask() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.passiveArmed = false
	if r.busy > 0 {
		r.armPassive()
		return
	}
	r.flushPassiveEffects()
}
