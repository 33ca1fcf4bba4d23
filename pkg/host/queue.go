package host

import "sync"

// Queue is a Scheduler whose deferred tasks run only when the caller drains
// it. It never yields unless configured to.
type Queue struct {
	mu         sync.Mutex
	tasks      []func()
	yield      func() bool
	yieldEvery int
	checks     int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Defer appends fn to the queue.
func (q *Queue) Defer(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// ShouldYield consults the configured yield predicate.
func (q *Queue) ShouldYield() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.yield != nil {
		return q.yield()
	}
	if q.yieldEvery > 0 {
		q.checks++
		if q.checks >= q.yieldEvery {
			q.checks = 0
			return true
		}
	}
	return false
}

// SetYield installs a yield predicate. nil restores never-yield.
func (q *Queue) SetYield(fn func() bool) {
	q.mu.Lock()
	q.yield = fn
	q.yieldEvery = 0
	q.mu.Unlock()
}

// YieldEvery makes ShouldYield report true on every n-th call.
// n <= 0 disables yielding.
func (q *Queue) YieldEvery(n int) {
	q.mu.Lock()
	q.yield = nil
	q.yieldEvery = n
	q.checks = 0
	q.mu.Unlock()
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// RunNext runs the oldest queued task. It reports false if the queue was
// empty.
func (q *Queue) RunNext() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	fn()
	return true
}

// Drain runs tasks until the queue is empty, including tasks deferred by
// the tasks it runs, and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for q.RunNext() {
		n++
	}
	return n
}
