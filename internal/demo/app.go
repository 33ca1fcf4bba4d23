package demo

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Item is one todo entry.
type Item struct {
	ID    string
	Label string
	Done  bool
}

// State is the state of App.
type State struct {
	ShowCounter bool
	Items       []Item
}

// Action is a transition of State.
type Action interface {
	apply(State) State
}

// SetItems replaces the todo list with one open item per label. The label
// doubles as the item ID.
type SetItems struct{ Labels []string }

// Toggle flips the done flag of the item with the given ID.
type Toggle struct{ ID string }

// Reorder moves the listed items to the front in the given order.
type Reorder struct{ IDs []string }

// ToggleCounter shows or hides the counter.
type ToggleCounter struct{}

func (a SetItems) apply(s State) State {
	items := make([]Item, 0, len(a.Labels))
	for _, l := range a.Labels {
		items = append(items, Item{ID: l, Label: l})
	}
	s.Items = items
	return s
}

func (a Toggle) apply(s State) State {
	items := slices.Clone(s.Items)
	for i := range items {
		if items[i].ID == a.ID {
			items[i].Done = !items[i].Done
		}
	}
	s.Items = items
	return s
}

func (a Reorder) apply(s State) State {
	items := make([]Item, 0, len(s.Items))
	for _, id := range a.IDs {
		if i := slices.IndexFunc(s.Items, func(it Item) bool { return it.ID == id }); i >= 0 {
			items = append(items, s.Items[i])
		}
	}
	for _, it := range s.Items {
		if !slices.Contains(a.IDs, it.ID) {
			items = append(items, it)
		}
	}
	s.Items = items
	return s
}

func (ToggleCounter) apply(s State) State {
	s.ShowCounter = !s.ShowCounter
	return s
}

func reduce(s State, a Action) State {
	return a.apply(s)
}

// Controller drives a mounted App from outside the tree. The components
// publish their dispatchers to it from layout effects. Dispatch and
// Increment must be called on the goroutine that owns the root.
type Controller struct {
	mu        sync.Mutex
	dispatch  func(Action)
	increment func()
	log       []string
}

// NewController creates an unattached controller.
func NewController() *Controller {
	return &Controller{}
}

// Dispatch sends a to the mounted App.
func (c *Controller) Dispatch(a Action) error {
	c.mu.Lock()
	fn := c.dispatch
	c.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("demo: app is not mounted")
	}
	fn(a)
	return nil
}

// Increment bumps the counter.
func (c *Controller) Increment() error {
	c.mu.Lock()
	fn := c.increment
	c.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("demo: counter is not mounted")
	}
	fn()
	return nil
}

// Log returns the messages written by passive effects so far.
func (c *Controller) Log() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.log)
}

func (c *Controller) logf(format string, args ...any) {
	c.mu.Lock()
	c.log = append(c.log, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

func (c *Controller) setDispatch(fn func(Action)) {
	c.mu.Lock()
	c.dispatch = fn
	c.mu.Unlock()
}

func (c *Controller) setIncrement(fn func()) {
	c.mu.Lock()
	c.increment = fn
	c.mu.Unlock()
}

func controllerOf(props vdom.Props) *Controller {
	if c, ok := props.Get("controller").(*Controller); ok {
		return c
	}
	return NewController()
}

// App is the demo root: an optional counter, a done summary and a keyed
// todo list.
var App = fiber.Define("App", func(h *fiber.Hooks, props vdom.Props) *vdom.Node {
	ctrl := controllerOf(props)
	state, dispatch := fiber.UseReducer(h, reduce, State{ShowCounter: true})

	fiber.UseLayoutEffect(h, func() fiber.Cleanup {
		ctrl.setDispatch(dispatch)
		return func() { ctrl.setDispatch(nil) }
	}, fiber.Deps{ctrl})

	done := fiber.UseMemo(h, func() int {
		n := 0
		for _, it := range state.Items {
			if it.Done {
				n++
			}
		}
		return n
	}, fiber.Deps{state.Items})

	fiber.UseEffect(h, func() fiber.Cleanup {
		ctrl.logf("done=%d/%d", done, len(state.Items))
		return nil
	}, fiber.Deps{done, len(state.Items)})

	var counter *vdom.Node
	if state.ShowCounter {
		counter = Counter.Keyed("counter", vdom.Props{"controller": ctrl})
	}
	return vdom.Div(vdom.Class("app"),
		counter,
		vdom.H1(vdom.Key("summary"), vdom.Textf("%d/%d done", done, len(state.Items))),
		TodoList.Keyed("todos", vdom.Props{"items": state.Items}),
	)
})

// Counter renders a number that Controller.Increment bumps.
var Counter = fiber.Define("Counter", func(h *fiber.Hooks, props vdom.Props) *vdom.Node {
	ctrl := controllerOf(props)
	n, set := fiber.UseState(h, 0)

	fiber.UseLayoutEffect(h, func() fiber.Cleanup {
		ctrl.setIncrement(func() { set.Update(func(v int) int { return v + 1 }) })
		return func() { ctrl.setIncrement(nil) }
	}, fiber.Deps{ctrl})

	fiber.UseEffect(h, func() fiber.Cleanup {
		ctrl.logf("counter=%d", n)
		return nil
	}, fiber.Deps{n})

	return vdom.Div(vdom.Class("counter"), vdom.Span(vdom.Textf("%d", n)))
})

// TodoList renders one keyed TodoItem per item.
var TodoList = fiber.Define("TodoList", func(_ *fiber.Hooks, props vdom.Props) *vdom.Node {
	items, _ := props.Get("items").([]Item)
	return vdom.Ul(vdom.Class("todos"), vdom.Range(items, func(it Item, _ int) *vdom.Node {
		return TodoItem.Keyed(it.ID, vdom.Props{"label": it.Label, "done": it.Done})
	}))
})

// TodoItem renders one entry.
var TodoItem = fiber.Define("TodoItem", func(_ *fiber.Hooks, props vdom.Props) *vdom.Node {
	class := "todo"
	if props.Bool("done") {
		class = "todo done"
	}
	return vdom.Li(vdom.Class(class), vdom.Text(props.String("label")))
})
