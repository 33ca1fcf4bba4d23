package fiber_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/fibertest"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

func list(n int) *vdom.Node {
	items := make([]*vdom.Node, n)
	for i := range items {
		items[i] = vdom.Li(vdom.Textf("item %d", i))
	}
	return vdom.Ul(items)
}

func TestBatchCoalescesNestedWindows(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))

	h.Root.Batch(func() {
		set.Update(inc)
		h.Root.Batch(func() {
			set.Update(inc)
			set.Update(inc)
		})
		if got := h.Queue.Pending(); got != 0 {
			t.Errorf("Queue.Pending() inside batch = %d, want 0", got)
		}
	})
	if got := h.Queue.Pending(); got != 1 {
		t.Errorf("Queue.Pending() after batch = %d, want 1", got)
	}
	h.Drain()

	if got := h.Snapshot(); got != "<span>3</span>" {
		t.Errorf("Snapshot() = %s, want <span>3</span>", got)
	}
	if got := h.CommitCount(); got != 2 {
		t.Errorf("CommitCount() = %d, want 2", got)
	}
}

func TestWithLaneSetsDefaultLane(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))

	h.Root.WithLane(fiber.TransitionLane, func() {
		set.Set(1)
	})
	if got := h.Root.PendingLanes(); got != fiber.TransitionLane {
		t.Errorf("PendingLanes() = %v, want %v", got, fiber.TransitionLane)
	}
	set.SetWithLane(2, fiber.SyncLane)
	if got, want := h.Root.PendingLanes(), fiber.SyncLane|fiber.TransitionLane; got != want {
		t.Errorf("PendingLanes() = %v, want %v", got, want)
	}
	h.Drain()
	if got := h.Snapshot(); got != "<span>2</span>" {
		t.Errorf("Snapshot() = %s, want <span>2</span>", got)
	}
	if got := h.Root.PendingLanes(); got != fiber.NoLane {
		t.Errorf("PendingLanes() after drain = %v, want none", got)
	}
}

func TestYieldingPassCommitsOnce(t *testing.T) {
	h := fibertest.New(t)
	h.Queue.YieldEvery(1)

	h.Render(list(5))

	want := "<ul><li>item 0</li><li>item 1</li><li>item 2</li><li>item 3</li><li>item 4</li></ul>"
	if got := h.Snapshot(); got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if got := h.CommitCount(); got != 1 {
		t.Errorf("CommitCount() = %d, want 1", got)
	}
	if got := h.Root.Stats().Yields; got < 5 {
		t.Errorf("Stats().Yields = %d, want at least 5", got)
	}
}

func TestYieldedPassIsInvisible(t *testing.T) {
	h := fibertest.New(t)
	h.Render(list(3))
	before, digest := h.Snapshot(), h.Host.Digest()
	h.Host.ResetOps()

	h.Queue.YieldEvery(1)
	if err := h.Root.Update(list(4)); err != nil {
		t.Fatal(err)
	}
	h.Step()
	h.Step()

	if !h.Root.Working() {
		t.Fatal("Working() = false, want a yielded pass")
	}
	if got := h.Snapshot(); got != before {
		t.Errorf("Snapshot() mid-pass = %s, want %s", got, before)
	}
	if got := len(h.Host.Ops()); got != 0 {
		t.Errorf("host ops mid-pass = %d, want 0", got)
	}

	if !h.Root.Abandon() {
		t.Fatal("Abandon() = false, want true")
	}
	if got := h.Host.Digest(); got != digest {
		t.Errorf("Digest() after Abandon = %x, want %x", got, digest)
	}
	if got := h.Root.Stats().Abandoned; got != 1 {
		t.Errorf("Stats().Abandoned = %d, want 1", got)
	}

	h.Queue.YieldEvery(0)
	h.Drain()
	if got, want := h.Snapshot(), list4; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
}

const list4 = "<ul><li>item 0</li><li>item 1</li><li>item 2</li><li>item 3</li></ul>"

func TestAbandonKeepsQueuedUpdates(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(vdom.Div(counter(&renders, &set).New(nil)))

	h.Queue.YieldEvery(1)
	set.Update(inc)
	set.Update(inc)
	for start := renders; renders == start; {
		if !h.Step() {
			t.Fatal("queue drained before the counter rendered")
		}
	}
	if !h.Root.Abandon() {
		t.Fatal("Abandon() = false, want true")
	}
	if got := h.Snapshot(); got != "<div><span>0</span></div>" {
		t.Errorf("Snapshot() after Abandon = %s, want <div><span>0</span></div>", got)
	}

	h.Queue.YieldEvery(0)
	h.Drain()
	if got := h.Snapshot(); got != "<div><span>2</span></div>" {
		t.Errorf("Snapshot() = %s, want <div><span>2</span></div>", got)
	}
}

func TestHigherLanePreemptsYieldedPass(t *testing.T) {
	h := fibertest.New(t)
	var slowRenders, fastRenders int
	var slow, fast fiber.Setter[int]
	slowC := counter(&slowRenders, &slow)
	fastC := fiber.Define("Fast", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		fastRenders++
		n, s := fiber.UseState(hk, 0)
		fast = s
		return vdom.El("b", vdom.Textf("%d", n))
	})
	h.Render(vdom.Div(slowC.New(nil), fastC.New(nil)))

	h.Queue.YieldEvery(1)
	slow.SetWithLane(1, fiber.TransitionLane)
	h.Step()
	if !h.Root.Working() {
		t.Fatal("Working() = false, want a yielded transition pass")
	}

	fast.SetWithLane(1, fiber.SyncLane)
	if h.Root.Working() {
		t.Error("Working() = true, want the transition pass discarded")
	}
	if got := h.Root.Stats().Preemptions; got != 1 {
		t.Errorf("Stats().Preemptions = %d, want 1", got)
	}

	h.Queue.YieldEvery(0)
	h.Drain()
	if got, want := h.Snapshot(), "<div><span>1</span><b>1</b></div>"; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if got := h.CommitCount(); got != 2 {
		t.Errorf("CommitCount() = %d, want 2", got)
	}
}

func TestUpdateDuringYieldSurvivesCommit(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(vdom.Div(counter(&renders, &set).New(nil)))

	h.Queue.YieldEvery(1)
	set.Set(1)
	for start := renders; renders == start; {
		if !h.Step() {
			t.Fatal("queue drained before the counter rendered")
		}
	}
	set.Set(5)

	h.Queue.YieldEvery(0)
	h.Drain()
	if got := h.Snapshot(); got != "<div><span>5</span></div>" {
		t.Errorf("Snapshot() = %s, want <div><span>5</span></div>", got)
	}
	if got := h.CommitCount(); got != 3 {
		t.Errorf("CommitCount() = %d, want 3", got)
	}
}

func TestCommitBudget(t *testing.T) {
	h := fibertest.New(t, fiber.WithCommitBudget(2, time.Minute))
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))
	set.Set(1)
	h.Drain()

	set.Set(2)
	err := h.Root.Flush()
	if !errors.Is(err, fiber.ErrUpdateStorm) {
		t.Fatalf("Flush() = %v, want ErrUpdateStorm", err)
	}
	if got := h.Snapshot(); got != "<span>1</span>" {
		t.Errorf("Snapshot() = %s, want <span>1</span>", got)
	}
	st := h.Root.Stats()
	if st.Aborted != 1 {
		t.Errorf("Stats().Aborted = %d, want 1", st.Aborted)
	}
	if st.RecentCommits != 2 {
		t.Errorf("Stats().RecentCommits = %d, want 2", st.RecentCommits)
	}
}

func TestNestedPassLimit(t *testing.T) {
	h := fibertest.New(t, fiber.WithMaxNestedPasses(10))
	comp := fiber.Define("Storm", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		n, set := fiber.UseState(hk, 0)
		fiber.UseLayoutEffect(hk, func() fiber.Cleanup {
			set.Set(n + 1)
			return nil
		}, nil)
		return vdom.Textf("%d", n)
	})

	err := h.Root.Render(comp.New(nil))
	if !errors.Is(err, fiber.ErrUpdateStorm) {
		t.Fatalf("Render() = %v, want ErrUpdateStorm", err)
	}
	if got := h.CommitCount(); got != 10 {
		t.Errorf("CommitCount() = %d, want 10", got)
	}
}

func TestFlushDrivesWorkWithoutScheduler(t *testing.T) {
	h := fibertest.New(t)
	if err := h.Root.Render(list(2)); err != nil {
		t.Fatal(err)
	}
	if got := h.Snapshot(); got != "<ul><li>item 0</li><li>item 1</li></ul>" {
		t.Errorf("Snapshot() = %s", got)
	}
	// The flush armed by Update finds nothing left to do.
	h.Drain()
	if got := h.CommitCount(); got != 1 {
		t.Errorf("CommitCount() = %d, want 1", got)
	}
}

func TestOnCommitListeners(t *testing.T) {
	h := fibertest.New(t)
	var seen []fiber.CommitInfo
	remove := h.Root.OnCommit(func(c fiber.CommitInfo) { seen = append(seen, c) })

	h.Render(list(1))
	remove()
	h.Render(list(2))

	if len(seen) != 1 {
		t.Fatalf("listener saw %d commits, want 1", len(seen))
	}
	if seen[0].Seq != 1 || seen[0].PassID == "" || seen[0].Units == 0 {
		t.Errorf("CommitInfo = %+v, want seq 1 with pass ID and units", seen[0])
	}
	if got := h.CommitCount(); got != 2 {
		t.Errorf("CommitCount() = %d, want 2", got)
	}
}
