// Package memhost is an in-memory display tree that implements
// host.Mutator. It keeps an operation log of every applied mutation, groups
// the log per commit, and renders the tree to a deterministic HTML-like
// snapshot.
package memhost

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Node is a display tree node. Text nodes have an empty Tag.
type Node struct {
	ID       string
	Tag      string
	Text     string
	Props    map[string]string
	Children []*Node
	Parent   *Node
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Tag == "" }

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) label() string {
	if n.IsText() {
		return "#text"
	}
	return n.Tag
}

// Commit is the group of mutations applied by one reconciler commit.
type Commit struct {
	Seq int          `json:"seq"`
	Ops []vdom.Patch `json:"ops"`
}

// Host is the in-memory display tree.
type Host struct {
	mu      sync.RWMutex
	root    *Node
	counter uint32
	ops     []vdom.Patch
	pending []vdom.Patch
	commits int
	subs    map[int]func(Commit)
	nextSub int
}

var (
	_ host.Mutator        = (*Host)(nil)
	_ host.CommitObserver = (*Host)(nil)
)

// New creates a host with an empty "#root" container.
func New() *Host {
	h := &Host{subs: make(map[int]func(Commit))}
	h.root = &Node{ID: "h0", Tag: "#root", Props: map[string]string{}}
	return h
}

// Container returns the root container instance.
func (h *Host) Container() host.Instance { return h.root }

// Root returns the root container node. Callers must not mutate it.
func (h *Host) Root() *Node { return h.root }

func (h *Host) nextID() string {
	h.counter++
	return fmt.Sprintf("h%d", h.counter)
}

func (h *Host) record(p vdom.Patch) {
	h.ops = append(h.ops, p)
	h.pending = append(h.pending, p)
}

// CreateElement implements host.Mutator.
func (h *Host) CreateElement(tag string, props vdom.Props) host.Instance {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &Node{ID: h.nextID(), Tag: tag, Props: make(map[string]string, len(props))}
	for k, v := range vdom.HostProps(props) {
		n.Props[k] = vdom.PropToString(v)
	}
	return n
}

// CreateText implements host.Mutator.
func (h *Host) CreateText(text string) host.Instance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &Node{ID: h.nextID(), Text: text}
}

// AppendChild implements host.Mutator.
func (h *Host) AppendChild(parent, child host.Instance) {
	h.InsertBefore(parent, child, nil)
}

// InsertBefore implements host.Mutator.
func (h *Host) InsertBefore(parent, child, before host.Instance) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c := mustNode(parent), mustNode(child)
	op := vdom.PatchInsertNode
	if c.Parent != nil {
		if c.Parent == p {
			op = vdom.PatchMoveNode
		}
		detach(c)
	}

	idx := len(p.Children)
	if before != nil {
		b := mustNode(before)
		if i := p.indexOf(b); i >= 0 {
			idx = i
		} else {
			panic(fmt.Sprintf("memhost: %s is not a child of %s", b.ID, p.ID))
		}
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = c
	c.Parent = p

	h.record(vdom.Patch{Op: op, ID: c.ID, Value: c.label(), ParentID: p.ID, Index: idx})
}

// RemoveChild implements host.Mutator.
func (h *Host) RemoveChild(parent, child host.Instance) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c := mustNode(parent), mustNode(child)
	idx := p.indexOf(c)
	if idx < 0 {
		panic(fmt.Sprintf("memhost: %s is not a child of %s", c.ID, p.ID))
	}
	detach(c)
	h.record(vdom.Patch{Op: vdom.PatchRemoveNode, ID: c.ID, ParentID: p.ID, Index: idx})
}

// CommitUpdate implements host.Mutator.
func (h *Host) CommitUpdate(inst host.Instance, changes []vdom.PropChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := mustNode(inst)
	for _, ch := range changes {
		if ch.Removed {
			delete(n.Props, ch.Key)
			h.record(vdom.Patch{Op: vdom.PatchRemoveAttr, ID: n.ID, Key: ch.Key})
			continue
		}
		v := vdom.PropToString(ch.Value)
		n.Props[ch.Key] = v
		h.record(vdom.Patch{Op: vdom.PatchSetAttr, ID: n.ID, Key: ch.Key, Value: v})
	}
}

// CommitText implements host.Mutator.
func (h *Host) CommitText(inst host.Instance, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := mustNode(inst)
	n.Text = text
	h.record(vdom.Patch{Op: vdom.PatchSetText, ID: n.ID, Value: text})
}

// PrepareCommit implements host.CommitObserver.
func (h *Host) PrepareCommit() {
	h.mu.Lock()
	h.pending = nil
	h.mu.Unlock()
}

// ResetAfterCommit implements host.CommitObserver. It closes the current
// commit group and notifies subscribers.
func (h *Host) ResetAfterCommit() {
	h.mu.Lock()
	h.commits++
	c := Commit{Seq: h.commits, Ops: h.pending}
	h.pending = nil
	subs := make([]func(Commit), 0, len(h.subs))
	for _, id := range sortedKeys(h.subs) {
		subs = append(subs, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

// Subscribe registers fn to receive every closed commit group. The returned
// function removes the subscription.
func (h *Host) Subscribe(fn func(Commit)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Ops returns a copy of the full operation log.
func (h *Host) Ops() []vdom.Patch {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]vdom.Patch(nil), h.ops...)
}

// ResetOps clears the operation log.
func (h *Host) ResetOps() {
	h.mu.Lock()
	h.ops = nil
	h.mu.Unlock()
}

// Commits returns the number of closed commit groups.
func (h *Host) Commits() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.commits
}

// Find returns the attached node with the given ID.
func (h *Host) Find(id string) *Node {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stack := []*Node{h.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id {
			return n
		}
		stack = append(stack, n.Children...)
	}
	return nil
}

// Snapshot renders the contents of the root container as HTML-like text.
// Attributes are sorted, so equal trees produce equal snapshots.
func (h *Host) Snapshot() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder
	for _, c := range h.root.Children {
		writeNode(&b, c)
	}
	return b.String()
}

// Digest returns the xxhash of Snapshot.
func (h *Host) Digest() uint64 {
	return xxhash.Sum64String(h.Snapshot())
}

func writeNode(b *strings.Builder, n *Node) {
	if n.IsText() {
		b.WriteString(html.EscapeString(n.Text))
		return
	}
	b.WriteString("<" + n.Tag)
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ` %s="%s"`, k, html.EscapeString(n.Props[k]))
	}
	b.WriteString(">")
	for _, c := range n.Children {
		writeNode(b, c)
	}
	b.WriteString("</" + n.Tag + ">")
}

func detach(c *Node) {
	p := c.Parent
	if p == nil {
		return
	}
	if i := p.indexOf(c); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	c.Parent = nil
}

func mustNode(inst host.Instance) *Node {
	n, ok := inst.(*Node)
	if !ok || n == nil {
		panic(fmt.Sprintf("memhost: unexpected instance %T", inst))
	}
	return n
}

func sortedKeys(m map[int]func(Commit)) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
