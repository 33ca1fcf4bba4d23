package vdom

import "strings"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <li>, etc.
	KindText                  // Plain text leaf
	KindFragment              // Grouping without wrapper
	KindComponent             // Nested component
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Node is one entry of a description tree.
type Node struct {
	Kind     Kind      // Node type
	Tag      string    // Element tag name (e.g., "div")
	Comp     Component // For KindComponent
	Props    Props     // Input data
	Key      string    // Reconciliation key
	Text     string    // For KindText
	Children []*Node   // Child nodes
}

// Component is the type identity of a component node. Two component nodes
// have the same type when their Component values are equal, which for the
// pointer implementations in package fiber means the same definition.
type Component interface {
	ComponentName() string
}

// SameType reports whether a and b describe the same type at a tree
// position. Keys are not compared.
func SameType(a, b *Node) bool {
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindElement:
		return a.Tag == b.Tag
	case KindComponent:
		return a.Comp == b.Comp
	default:
		return true
	}
}

// Name returns a short label for the node, used in logs and errors.
func (n *Node) Name() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindElement:
		return n.Tag
	case KindText:
		return "#text"
	case KindFragment:
		return "#fragment"
	case KindComponent:
		if n.Comp == nil {
			return "<component>"
		}
		return n.Comp.ComponentName()
	default:
		return "?"
	}
}

// String renders the node and its children in a compact bracket form,
// e.g. ul[li#a["x"] li#b["y"]].
func (n *Node) String() string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	if n.Kind == KindText {
		b.WriteString(`"` + n.Text + `"`)
		return
	}
	b.WriteString(n.Name())
	if n.Key != "" {
		b.WriteString("#" + n.Key)
	}
	if len(n.Children) == 0 {
		return
	}
	b.WriteString("[")
	for i, c := range n.Children {
		if i > 0 {
			b.WriteString(" ")
		}
		writeNode(b, c)
	}
	b.WriteString("]")
}

// Props holds the input data of a node.
type Props map[string]any

// Get returns the value stored under key, or nil.
func (p Props) Get(key string) any {
	if p == nil {
		return nil
	}
	return p[key]
}

// String returns the string stored under key, or "".
func (p Props) String(key string) string {
	s, _ := p.Get(key).(string)
	return s
}

// Int returns the int stored under key, or 0.
func (p Props) Int(key string) int {
	n, _ := p.Get(key).(int)
	return n
}

// Bool returns the bool stored under key, or false.
func (p Props) Bool(key string) bool {
	v, _ := p.Get(key).(bool)
	return v
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}
