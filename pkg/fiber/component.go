package fiber

import "github.com/vango-dev/reconciler/pkg/vdom"

// RenderFunc renders a component. It receives the hook handle for this
// render and the read-only props of the component node, and returns the
// description of its children (nil renders nothing).
type RenderFunc func(h *Hooks, props vdom.Props) *vdom.Node

// Component is a named render function. The *Component pointer is the
// component's type identity: two nodes built from the same *Component at
// the same position reuse one unit.
type Component struct {
	name   string
	render RenderFunc
}

var _ vdom.Component = (*Component)(nil)

// Define creates a component type.
func Define(name string, render RenderFunc) *Component {
	if render == nil {
		panic("fiber: Define requires a render function")
	}
	return &Component{name: name, render: render}
}

// ComponentName implements vdom.Component.
func (c *Component) ComponentName() string {
	return c.name
}

// New creates a description node for this component.
func (c *Component) New(props vdom.Props, children ...*vdom.Node) *vdom.Node {
	return vdom.Comp(c, props, children...)
}

// Keyed creates a description node with a reconciliation key.
func (c *Component) Keyed(key string, props vdom.Props, children ...*vdom.Node) *vdom.Node {
	n := vdom.Comp(c, props, children...)
	n.Key = key
	return n
}
