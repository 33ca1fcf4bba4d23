package demo

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// driver runs code on the goroutine that owns a root.
type driver interface {
	do(ctx context.Context, fn func()) error
	// run executes up to n deferred tasks.
	run(ctx context.Context, n int) error
	// settle runs deferred work until the root is idle.
	settle(ctx context.Context) error
}

// queueDriver drives a root scheduled on a host.Queue from the calling
// goroutine.
type queueDriver struct {
	queue *host.Queue
}

func (d queueDriver) do(_ context.Context, fn func()) error {
	fn()
	return nil
}

func (d queueDriver) run(ctx context.Context, n int) error {
	for i := 0; i < n && d.queue.RunNext(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (d queueDriver) settle(ctx context.Context) error {
	for d.queue.RunNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// loopDriver drives a root scheduled on a running host.Loop.
type loopDriver struct {
	loop *host.Loop
	root *fiber.Root
}

func (d loopDriver) do(ctx context.Context, fn func()) error {
	return d.loop.Do(ctx, fn)
}

// run lets the loop make progress on its own; tasks cannot be counted.
func (d loopDriver) run(ctx context.Context, _ int) error {
	return d.loop.Do(ctx, func() {})
}

func (d loopDriver) settle(ctx context.Context) error {
	var err error
	if e := d.loop.Do(ctx, func() { err = d.root.Flush() }); e != nil {
		return e
	}
	return err
}

// Session is an App mounted into an in-memory host.
type Session struct {
	Root *fiber.Root
	Host *memhost.Host
	Ctrl *Controller

	driver driver

	mu   sync.Mutex
	errs []error
}

// Result summarizes a played scenario.
type Result struct {
	Name     string      `json:"name"`
	Steps    int         `json:"steps"`
	Snapshot string      `json:"snapshot"`
	Digest   string      `json:"digest"`
	Commits  int         `json:"commits"`
	Stats    fiber.Stats `json:"stats"`
	Log      []string    `json:"log"`
}

// NewSession creates a root over a fresh memhost scheduled by sched, which
// must be a *host.Queue or a *host.Loop. Errors reported by the root are
// collected and fail the step that caused them. opts are applied after the
// session defaults.
func NewSession(sched host.Scheduler, opts ...fiber.Option) *Session {
	s := &Session{
		Host: memhost.New(),
		Ctrl: NewController(),
	}
	base := []fiber.Option{
		fiber.WithScheduler(sched),
		fiber.WithOnError(s.record),
	}
	s.Root = fiber.NewRoot(s.Host.Container(), s.Host, append(base, opts...)...)

	switch sc := sched.(type) {
	case *host.Queue:
		s.driver = queueDriver{queue: sc}
	case *host.Loop:
		s.driver = loopDriver{loop: sc, root: s.Root}
	default:
		panic(fmt.Sprintf("demo: unsupported scheduler %T", sched))
	}
	return s
}

func (s *Session) record(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *Session) takeErrors() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := stderrors.Join(s.errs...)
	s.errs = nil
	return err
}

// Mount renders App and waits for the first commit.
func (s *Session) Mount(ctx context.Context) error {
	var err error
	if e := s.driver.do(ctx, func() {
		err = s.Root.Update(App.New(vdom.Props{"controller": s.Ctrl}))
	}); e != nil {
		return e
	}
	if err != nil {
		return err
	}
	if err := s.driver.settle(ctx); err != nil {
		return err
	}
	return s.takeErrors()
}

// Close unmounts the root.
func (s *Session) Close(ctx context.Context) error {
	var err error
	if e := s.driver.do(ctx, func() { err = s.Root.Unmount() }); e != nil {
		return e
	}
	return err
}

// Play applies every step of sc in order. trace, if not nil, receives one
// line per step.
func (s *Session) Play(ctx context.Context, sc *Scenario, trace io.Writer) (*Result, error) {
	for i, step := range sc.Steps {
		if err := s.Apply(ctx, step); err != nil {
			return s.result(sc, i), s.stepError(sc, i, step, err)
		}
		if trace != nil {
			fmt.Fprintf(trace, "%3d  %-28s %s\n", i+1, step, s.Host.Snapshot())
		}
	}
	return s.result(sc, len(sc.Steps)), nil
}

func (s *Session) result(sc *Scenario, steps int) *Result {
	return &Result{
		Name:     sc.Name,
		Steps:    steps,
		Snapshot: s.Host.Snapshot(),
		Digest:   fmt.Sprintf("%016x", s.Host.Digest()),
		Commits:  s.Host.Commits(),
		Stats:    s.Root.Stats(),
		Log:      s.Ctrl.Log(),
	}
}

func (s *Session) stepError(sc *Scenario, i int, step Step, err error) error {
	e := errors.New("S303").WithDetailf("step %d (%s): %v", i+1, step, err).Wrap(err)
	var coded *errors.Error
	if stderrors.As(err, &coded) && coded.Suggestion != "" {
		e = e.WithSuggestion(coded.Suggestion)
	}
	if step.Line > 0 {
		e = e.WithLocation(sc.File, step.Line, step.Column)
	}
	return e
}

// Apply performs one step and, unless the step defers, settles the root.
func (s *Session) Apply(ctx context.Context, step Step) error {
	switch step.Do {
	case DoRun:
		if err := s.driver.run(ctx, step.times()); err != nil {
			return err
		}
		return s.takeErrors()
	case DoSettle:
		if err := s.driver.settle(ctx); err != nil {
			return err
		}
		return s.takeErrors()
	case DoExpect:
		if err := s.driver.settle(ctx); err != nil {
			return err
		}
		if err := s.takeErrors(); err != nil {
			return err
		}
		return s.expect(step)
	}

	var err error
	update := func() {
		switch step.Do {
		case DoIncrement:
			s.Root.Batch(func() {
				for i := 0; i < step.times() && err == nil; i++ {
					err = s.Ctrl.Increment()
				}
			})
		case DoSetItems:
			err = s.Ctrl.Dispatch(SetItems{Labels: step.Items})
		case DoToggle:
			err = s.Ctrl.Dispatch(Toggle{ID: step.ID})
		case DoReorder:
			err = s.Ctrl.Dispatch(Reorder{IDs: step.Items})
		case DoToggleCounter:
			err = s.Ctrl.Dispatch(ToggleCounter{})
		case DoAbandon:
			s.Root.Abandon()
		}
	}
	if lane := step.LaneValue(); lane != fiber.NoLane {
		inner := update
		update = func() { s.Root.WithLane(lane, inner) }
	}

	if e := s.driver.do(ctx, update); e != nil {
		return e
	}
	if err != nil {
		return err
	}
	if !step.Defer {
		if err := s.driver.settle(ctx); err != nil {
			return err
		}
	}
	return s.takeErrors()
}

func (s *Session) expect(step Step) error {
	if step.Snapshot != "" {
		if got := s.Host.Snapshot(); got != step.Snapshot {
			return fmt.Errorf("snapshot mismatch:\n  got  %s\n  want %s", got, step.Snapshot)
		}
	}
	if step.Log != nil {
		if got := s.Ctrl.Log(); !slices.Equal(got, step.Log) {
			return fmt.Errorf("effect log mismatch:\n  got  %q\n  want %q", got, step.Log)
		}
	}
	return nil
}
