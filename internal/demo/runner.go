package demo

import (
	"context"
	"io"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/host"
)

// Runner plays scenarios against a fresh App on a manual scheduler.
type Runner struct {
	// Options are applied to every root the runner creates.
	Options []fiber.Option

	// Trace receives one line per step. Nil disables tracing.
	Trace io.Writer
}

// Run mounts App, plays sc and unmounts.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (res *Result, err error) {
	q := host.NewQueue()
	q.YieldEvery(sc.YieldEvery)

	s := NewSession(q, r.Options...)
	defer func() {
		if cerr := s.Close(ctx); err == nil {
			err = cerr
		}
	}()

	if err := s.Mount(ctx); err != nil {
		return nil, err
	}
	return s.Play(ctx, sc, r.Trace)
}
