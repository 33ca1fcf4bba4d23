package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopRunning is returned by Run when the loop is already running.
var ErrLoopRunning = errors.New("host: loop already running")

// DefaultTimeSlice is the render budget of a single loop task.
const DefaultTimeSlice = 5 * time.Millisecond

// Loop is a single-goroutine event loop. Tasks passed to Defer run in FIFO
// order on the goroutine that called Run. Tasks deferred while a turn is
// running execute in the next turn.
type Loop struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}

	slice      time.Duration
	sliceStart atomic.Int64
	running    atomic.Bool
	logger     *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTimeSlice sets how long a task may run before ShouldYield reports
// true.
func WithTimeSlice(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.slice = d
		}
	}
}

// WithLoopLogger sets the logger used for recovered task panics.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		slice:  DefaultTimeSlice,
		logger: slog.Default().With("component", "host-loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Defer enqueues fn. Safe to call from any goroutine.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// ShouldYield reports whether the current task exhausted its time slice.
func (l *Loop) ShouldYield() bool {
	start := l.sliceStart.Load()
	if start == 0 {
		return false
	}
	return time.Since(time.Unix(0, start)) >= l.slice
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	for {
		l.mu.Lock()
		turn := l.tasks
		l.tasks = nil
		l.mu.Unlock()

		for _, fn := range turn {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.safeExecute(fn)
		}

		if len(turn) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Defer(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// safeExecute runs one task with panic recovery so a single failing task
// does not stop the loop.
func (l *Loop) safeExecute(fn func()) {
	if fn == nil {
		return
	}
	l.sliceStart.Store(time.Now().UnixNano())
	defer l.sliceStart.Store(0)
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
}
