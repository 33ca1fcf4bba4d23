package vdom

import "strings"

// El creates an element node with the given tag.
// Arguments can be: nil, Attr, []Attr, Props, *Node, []*Node, or string
// (shorthand for a text child).
func El(tag string, args ...any) *Node {
	node := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}
	appendArgs(node, args)
	return node
}

func appendArgs(node *Node, args []any) {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			setAttr(node, v)

		case []Attr:
			for _, a := range v {
				setAttr(node, a)
			}

		case Props:
			for k, val := range v {
				setAttr(node, Attr{Key: k, Value: val})
			}

		case *Node:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*Node:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case string:
			node.Children = append(node.Children, Text(v))
		}
	}
}

func setAttr(node *Node, a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Key == "key" {
		if s, ok := a.Value.(string); ok {
			node.Key = s
		}
		return
	}
	if node.Props == nil {
		node.Props = make(Props)
	}
	node.Props[a.Key] = a.Value
}

// Comp creates a component node. props is handed to the component's render
// function unchanged; a "key" entry becomes the reconciliation key.
func Comp(c Component, props Props, children ...*Node) *Node {
	node := &Node{
		Kind:  KindComponent,
		Comp:  c,
		Props: props,
	}
	if k, ok := props["key"].(string); ok {
		node.Key = k
	}
	for _, child := range children {
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Key sets the reconciliation key of the node it is passed to.
func Key(key string) Attr { return attr("key", key) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// Data sets a data-* attribute.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// A sets an arbitrary attribute.
func A(key string, value any) Attr { return attr(key, value) }

func Div(args ...any) *Node    { return El("div", args...) }
func Span(args ...any) *Node   { return El("span", args...) }
func P(args ...any) *Node      { return El("p", args...) }
func Ul(args ...any) *Node     { return El("ul", args...) }
func Li(args ...any) *Node     { return El("li", args...) }
func H1(args ...any) *Node     { return El("h1", args...) }
func Button(args ...any) *Node { return El("button", args...) }
