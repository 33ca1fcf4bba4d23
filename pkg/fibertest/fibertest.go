// Package fibertest provides a test harness that wires a fiber.Root to an
// in-memory host and a manually drained scheduler.
package fibertest

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Harness is a root rendering into a memhost.Host. Deferred work runs only
// when the test drains Queue.
type Harness struct {
	Host  *memhost.Host
	Queue *host.Queue
	Root  *fiber.Root

	tb      testing.TB
	mu      sync.Mutex
	errs    []error
	commits []fiber.CommitInfo
}

// New creates a harness. Errors reported by the root are recorded instead
// of logged; opts are applied after the harness defaults.
func New(tb testing.TB, opts ...fiber.Option) *Harness {
	tb.Helper()

	h := &Harness{
		Host:  memhost.New(),
		Queue: host.NewQueue(),
		tb:    tb,
	}
	base := []fiber.Option{
		fiber.WithScheduler(h.Queue),
		fiber.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		fiber.WithOnError(h.recordError),
	}
	h.Root = fiber.NewRoot(h.Host.Container(), h.Host, append(base, opts...)...)
	h.Root.OnCommit(func(c fiber.CommitInfo) {
		h.mu.Lock()
		h.commits = append(h.commits, c)
		h.mu.Unlock()
	})
	tb.Cleanup(func() { _ = h.Root.Unmount() })
	return h
}

func (h *Harness) recordError(err error) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

// Render schedules node and drains the queue. It fails the test if the
// root rejects the update.
func (h *Harness) Render(node *vdom.Node) {
	h.tb.Helper()
	if err := h.Root.Update(node); err != nil {
		h.tb.Fatalf("Update: %v", err)
	}
	h.Drain()
}

// Drain runs deferred tasks until none remain and returns how many ran.
func (h *Harness) Drain() int {
	return h.Queue.Drain()
}

// Step runs a single deferred task.
func (h *Harness) Step() bool {
	return h.Queue.RunNext()
}

// Snapshot returns the host output.
func (h *Harness) Snapshot() string {
	return h.Host.Snapshot()
}

// Errors returns the errors reported so far.
func (h *Harness) Errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

// Commits returns the commits observed so far.
func (h *Harness) Commits() []fiber.CommitInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]fiber.CommitInfo(nil), h.commits...)
}

// CommitCount returns the number of commits observed so far.
func (h *Harness) CommitCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.commits)
}

// NoErrors fails the test if any error was reported.
func (h *Harness) NoErrors() {
	h.tb.Helper()
	for _, err := range h.Errors() {
		h.tb.Errorf("unexpected error: %v", err)
	}
}

// Recorder collects ordered log lines from render functions and effects.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Add appends a line.
func (r *Recorder) Add(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Take returns the lines recorded since the last Take and clears them.
func (r *Recorder) Take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.lines
	r.lines = nil
	return out
}
