package fiber_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/fibertest"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

func inc(n int) int { return n + 1 }

// counter returns a component rendering its state in a span and exposing
// the setter of its latest render.
func counter(renders *int, set *fiber.Setter[int]) *fiber.Component {
	return fiber.Define("Counter", func(h *fiber.Hooks, _ vdom.Props) *vdom.Node {
		*renders++
		n, s := fiber.UseState(h, 0)
		*set = s
		return vdom.Span(vdom.Textf("%d", n))
	})
}

func TestCounterFoldsSynchronousUpdates(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))

	if got, want := h.Snapshot(), "<span>0</span>"; got != want {
		t.Fatalf("Snapshot() = %s, want %s", got, want)
	}
	before := h.CommitCount()

	set.Update(inc)
	set.Update(inc)
	set.Update(inc)
	if got := h.Queue.Pending(); got != 1 {
		t.Errorf("Queue.Pending() = %d, want 1 deferred flush", got)
	}
	h.Drain()

	if got, want := h.Snapshot(), "<span>3</span>"; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if got := h.CommitCount() - before; got != 1 {
		t.Errorf("commits = %d, want 1", got)
	}
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
	h.NoErrors()
}

func TestUpdatesAcrossWindows(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))

	for i := 0; i < 3; i++ {
		set.Update(inc)
		h.Drain()
	}

	if got, want := h.Snapshot(), "<span>3</span>"; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if got := h.CommitCount(); got != 4 {
		t.Errorf("CommitCount() = %d, want 4", got)
	}
}

func TestSetterMixesValuesAndFunctions(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))

	set.Set(10)
	set.Update(inc)
	set.Update(func(n int) int { return n * 2 })
	h.Drain()

	if got, want := h.Snapshot(), "<span>22</span>"; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
}

func TestStatePersistsAcrossParentRenders(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	c := counter(&renders, &set)

	h.Render(vdom.Div(vdom.ID("a"), c.New(nil)))
	set.Set(7)
	h.Drain()
	h.Render(vdom.Div(vdom.ID("b"), c.New(nil)))

	if got, want := h.Snapshot(), `<div id="b"><span>7</span></div>`; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if renders != 3 {
		t.Errorf("renders = %d, want 3", renders)
	}
}

func TestEagerBailout(t *testing.T) {
	h := fibertest.New(t)
	var renders int
	var set fiber.Setter[int]
	h.Render(counter(&renders, &set).New(nil))
	snap := h.Snapshot()

	set.Set(0)
	set.Update(func(n int) int { return n })

	if got := h.Queue.Pending(); got != 0 {
		t.Errorf("Queue.Pending() = %d, want 0", got)
	}
	h.Drain()
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}
	if got := h.Snapshot(); got != snap {
		t.Errorf("Snapshot() = %s, want %s", got, snap)
	}
	if got := h.Root.Stats().EagerBailouts; got != 2 {
		t.Errorf("Stats().EagerBailouts = %d, want 2", got)
	}
}

func TestEagerValueIsReused(t *testing.T) {
	h := fibertest.New(t)
	calls := 0
	var set fiber.Setter[int]
	comp := fiber.Define("Eager", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		n, s := fiber.UseState(hk, 1)
		set = s
		return vdom.Textf("%d", n)
	})
	h.Render(comp.New(nil))

	set.Update(func(n int) int {
		calls++
		return n + 1
	})
	h.Drain()

	if calls != 1 {
		t.Errorf("updater calls = %d, want 1", calls)
	}
	if got := h.Snapshot(); got != "2" {
		t.Errorf("Snapshot() = %q, want 2", got)
	}
}

func TestForcedRenderMatchesEagerBailout(t *testing.T) {
	eager := fibertest.New(t)
	var renders int
	var set fiber.Setter[string]
	label := fiber.Define("Label", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		renders++
		v, s := fiber.UseState(hk, "x")
		set = s
		return vdom.P(vdom.Text(v))
	})
	eager.Render(label.New(nil))
	set.Set("x")
	eager.Drain()

	// A reducer is never evaluated eagerly, so the same action renders.
	forced := fibertest.New(t)
	var forcedRenders int
	var dispatch func(string)
	reduced := fiber.Define("Label", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		forcedRenders++
		v, d := fiber.UseReducer(hk, func(_ string, a string) string { return a }, "x")
		dispatch = d
		return vdom.P(vdom.Text(v))
	})
	forced.Render(reduced.New(nil))
	dispatch("x")
	forced.Drain()

	if renders != 1 {
		t.Errorf("eager renders = %d, want 1", renders)
	}
	if forcedRenders != 2 {
		t.Errorf("forced renders = %d, want 2", forcedRenders)
	}
	if eager.Snapshot() != forced.Snapshot() {
		t.Errorf("eager %s != forced %s", eager.Snapshot(), forced.Snapshot())
	}
}

func TestUseReducer(t *testing.T) {
	h := fibertest.New(t)
	var dispatch func(string)
	comp := fiber.Define("Stepper", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		n, d := fiber.UseReducer(hk, func(n int, action string) int {
			switch action {
			case "inc":
				return n + 1
			case "dec":
				return n - 1
			}
			return n
		}, 0)
		dispatch = d
		return vdom.Textf("%d", n)
	})
	h.Render(comp.New(nil))
	first := dispatch

	dispatch("inc")
	dispatch("inc")
	dispatch("dec")
	dispatch("inc")
	h.Drain()

	if got := h.Snapshot(); got != "2" {
		t.Errorf("Snapshot() = %q, want 2", got)
	}
	if !fiber.SameValue(first, dispatch) {
		t.Error("dispatch identity changed across renders")
	}
}

func TestUseStateFuncInitializesOnce(t *testing.T) {
	h := fibertest.New(t)
	inits := 0
	var set fiber.Setter[[]string]
	comp := fiber.Define("Lazy", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		items, s := fiber.UseStateFunc(hk, func() []string {
			inits++
			return []string{"a"}
		})
		set = s
		return vdom.Textf("%d", len(items))
	})
	h.Render(comp.New(nil))
	set.Update(func(items []string) []string { return append(items, "b") })
	h.Drain()

	if inits != 1 {
		t.Errorf("initializer calls = %d, want 1", inits)
	}
	if got := h.Snapshot(); got != "2" {
		t.Errorf("Snapshot() = %q, want 2", got)
	}
}

func TestUseMemoAndCallback(t *testing.T) {
	h := fibertest.New(t)
	computes := 0
	var callbacks []func() int
	comp := fiber.Define("Memo", func(hk *fiber.Hooks, props vdom.Props) *vdom.Node {
		a, b := props.Int("a"), props.Int("b")
		sum := fiber.UseMemo(hk, func() int {
			computes++
			return a + b
		}, fiber.Deps{a, b})
		cb := fiber.UseCallback(hk, func() int { return a }, fiber.Deps{a})
		callbacks = append(callbacks, cb)
		return vdom.Textf("%d", sum)
	})

	h.Render(comp.New(vdom.Props{"a": 1, "b": 2}))
	h.Render(comp.New(vdom.Props{"a": 1, "b": 2}))
	h.Render(comp.New(vdom.Props{"a": 1, "b": 5}))
	h.Render(comp.New(vdom.Props{"a": 4, "b": 5}))

	if computes != 3 {
		t.Errorf("computes = %d, want 3", computes)
	}
	if got := h.Snapshot(); got != "9" {
		t.Errorf("Snapshot() = %q, want 9", got)
	}
	if !fiber.SameValue(callbacks[0], callbacks[2]) {
		t.Error("callback identity changed with unchanged deps")
	}
	if fiber.SameValue(callbacks[2], callbacks[3]) {
		t.Error("callback identity kept after deps changed")
	}
	if got := callbacks[3](); got != 4 {
		t.Errorf("callback() = %d, want 4", got)
	}
}

func TestUseRefIsStable(t *testing.T) {
	h := fibertest.New(t)
	var refs []*fiber.Ref[int]
	var set fiber.Setter[int]
	comp := fiber.Define("Refs", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		ref := fiber.UseRef(hk, 0)
		ref.Current++
		refs = append(refs, ref)
		_, s := fiber.UseState(hk, 0)
		set = s
		return nil
	})
	h.Render(comp.New(nil))
	set.Set(1)
	h.Drain()

	if len(refs) != 2 || refs[0] != refs[1] {
		t.Fatalf("refs = %v, want one stable ref", refs)
	}
	if refs[0].Current != 2 {
		t.Errorf("ref.Current = %d, want 2", refs[0].Current)
	}
}

func TestHookOrderStable(t *testing.T) {
	h := fibertest.New(t)
	var setA fiber.Setter[string]
	var setB fiber.Setter[int]
	comp := fiber.Define("Stable", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		a, sa := fiber.UseState(hk, "a")
		ref := fiber.UseRef(hk, "r")
		b, sb := fiber.UseState(hk, 1)
		fiber.UseEffect(hk, func() fiber.Cleanup { return nil }, fiber.Deps{a})
		m := fiber.UseMemo(hk, func() string { return a + ref.Current }, fiber.Deps{a})
		setA, setB = sa, sb
		return vdom.Textf("%s %d %s", a, b, m)
	})
	h.Render(comp.New(nil))

	for i := 0; i < 5; i++ {
		setB.Update(inc)
		h.Drain()
	}
	setA.Set("z")
	h.Drain()

	if got, want := h.Snapshot(), "z 6 zr"; got != want {
		t.Errorf("Snapshot() = %q, want %q", got, want)
	}
	h.NoErrors()
}

func TestHookOrderViolations(t *testing.T) {
	tests := []struct {
		name   string
		render func(h *fiber.Hooks, second bool)
	}{
		{
			name: "more hooks",
			render: func(h *fiber.Hooks, second bool) {
				fiber.UseState(h, 0)
				if second {
					fiber.UseState(h, 1)
				}
			},
		},
		{
			name: "fewer hooks",
			render: func(h *fiber.Hooks, second bool) {
				fiber.UseState(h, 0)
				if !second {
					fiber.UseRef(h, 1)
				}
			},
		},
		{
			name: "kind changed",
			render: func(h *fiber.Hooks, second bool) {
				if second {
					fiber.UseRef(h, 0)
				} else {
					fiber.UseState(h, 0)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := fibertest.New(t)
			comp := fiber.Define("Shifty", func(hk *fiber.Hooks, props vdom.Props) *vdom.Node {
				tt.render(hk, props.Bool("second"))
				return vdom.Textf("second=%v", props.Bool("second"))
			})
			if err := h.Root.Render(comp.New(vdom.Props{"second": false})); err != nil {
				t.Fatalf("first Render: %v", err)
			}
			err := h.Root.Render(comp.New(vdom.Props{"second": true}))
			if !errors.Is(err, fiber.ErrHookOrderViolation) {
				t.Fatalf("Render error = %v, want ErrHookOrderViolation", err)
			}
			var ferr *fiber.Error
			if !errors.As(err, &ferr) || ferr.Code != "R101" || ferr.Unit != "Shifty" {
				t.Errorf("error = %+v, want R101 in Shifty", ferr)
			}
			if got := h.Snapshot(); got != "second=false" {
				t.Errorf("Snapshot() = %q, want committed output kept", got)
			}
		})
	}
}

func TestHookCalledOutsideRender(t *testing.T) {
	h := fibertest.New(t)
	var saved *fiber.Hooks
	comp := fiber.Define("Leaky", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		saved = hk
		return nil
	})
	h.Render(comp.New(nil))

	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, fiber.ErrInvalidPrimitiveCall) {
			t.Errorf("recover() = %v, want ErrInvalidPrimitiveCall", rec)
		}
	}()
	fiber.UseState(saved, 0)
	t.Error("UseState did not panic")
}

func TestHookCalledFromAnotherGoroutine(t *testing.T) {
	h := fibertest.New(t)
	got := make(chan any, 1)
	comp := fiber.Define("Async", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer func() { got <- recover() }()
			fiber.UseRef(hk, 0)
		}()
		<-done
		return nil
	})
	h.Render(comp.New(nil))

	rec := <-got
	err, ok := rec.(error)
	if !ok || !errors.Is(err, fiber.ErrInvalidPrimitiveCall) {
		t.Errorf("recover() = %v, want ErrInvalidPrimitiveCall", rec)
	}
	h.NoErrors()
}

func TestRenderPhaseUpdateSettles(t *testing.T) {
	h := fibertest.New(t)
	renders := 0
	var set fiber.Setter[int]
	comp := fiber.Define("Settle", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		renders++
		n, s := fiber.UseState(hk, 0)
		set = s
		if n < 3 {
			s.Set(n + 1)
		}
		return vdom.Textf("%d", n)
	})
	h.Render(comp.New(nil))

	if got := h.Snapshot(); got != "3" {
		t.Errorf("Snapshot() = %q, want 3", got)
	}
	if renders != 4 {
		t.Errorf("renders = %d, want 4", renders)
	}
	if got := h.CommitCount(); got != 1 {
		t.Errorf("CommitCount() = %d, want 1", got)
	}

	set.Set(3)
	if got := h.Queue.Pending(); got != 0 {
		t.Errorf("Queue.Pending() = %d, want eager bail-out against settled state", got)
	}
}

func TestTooManyRerenders(t *testing.T) {
	h := fibertest.New(t, fiber.WithMaxRerenders(5))
	comp := fiber.Define("Loop", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		n, set := fiber.UseState(hk, 0)
		set.Set(n + 1)
		return nil
	})

	err := h.Root.Render(comp.New(nil))
	if !errors.Is(err, fiber.ErrTooManyRerenders) {
		t.Fatalf("Render error = %v, want ErrTooManyRerenders", err)
	}
	if got := len(h.Errors()); got != 1 {
		t.Errorf("reported errors = %d, want 1", got)
	}
	if got := h.CommitCount(); got != 0 {
		t.Errorf("CommitCount() = %d, want 0", got)
	}
}

func TestRenderPanicAbortsPass(t *testing.T) {
	h := fibertest.New(t)
	comp := fiber.Define("Boom", func(hk *fiber.Hooks, props vdom.Props) *vdom.Node {
		if props.Bool("boom") {
			panic(fmt.Errorf("kaboom"))
		}
		return vdom.P(vdom.Text("fine"))
	})
	h.Render(comp.New(nil))

	err := h.Root.Render(vdom.Div(comp.New(vdom.Props{"boom": true})))
	if !errors.Is(err, fiber.ErrRenderPanic) {
		t.Fatalf("Render error = %v, want ErrRenderPanic", err)
	}
	var ferr *fiber.Error
	if !errors.As(err, &ferr) || ferr.Code != "R104" || ferr.Unit != "Boom" {
		t.Errorf("error = %+v, want R104 in Boom", ferr)
	}
	if got := h.Snapshot(); got != "<p>fine</p>" {
		t.Errorf("Snapshot() = %s, want committed output kept", got)
	}
}
