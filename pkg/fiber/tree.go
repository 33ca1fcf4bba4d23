package fiber

// Stats counts root activity since creation.
type Stats struct {
	Passes         int `json:"passes"`
	Commits        int `json:"commits"`
	UnitsRendered  int `json:"unitsRendered"`
	Yields         int `json:"yields"`
	Preemptions    int `json:"preemptions"`
	Abandoned      int `json:"abandoned"`
	Aborted        int `json:"aborted"`
	EagerBailouts  int `json:"eagerBailouts"`
	EffectsRun     int `json:"effectsRun"`
	EffectFailures int `json:"effectFailures"`
	RecentCommits  int `json:"recentCommits"` // commits inside the budget window
}

// TreeNode is a read-only view of one committed unit.
type TreeNode struct {
	ID       uint64      `json:"id"`
	Kind     string      `json:"kind"`
	Name     string      `json:"name"`
	Key      string      `json:"key,omitempty"`
	Phase    string      `json:"phase"`
	Text     string      `json:"text,omitempty"`
	Hooks    []string    `json:"hooks,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree returns a view of the committed tree, starting at the root unit.
func (r *Root) Tree() *TreeNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return viewOf(r.current)
}

// viewOf builds the view of the subtree rooted at u with an explicit
// stack.
func viewOf(u *unit) *TreeNode {
	type frame struct {
		u    *unit
		view *TreeNode
	}
	top := nodeOf(u)
	stack := []frame{{u, top}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := f.u.child; c != nil; c = c.sibling {
			v := nodeOf(c)
			f.view.Children = append(f.view.Children, v)
			stack = append(stack, frame{c, v})
		}
	}
	return top
}

func nodeOf(u *unit) *TreeNode {
	n := &TreeNode{
		ID:    u.id,
		Kind:  u.kind.String(),
		Name:  u.Name(),
		Key:   u.key,
		Phase: u.phase.String(),
	}
	if u.kind == unitText {
		n.Text = u.text
	}
	for hk := u.hooks; hk != nil; hk = hk.next {
		n.Hooks = append(n.Hooks, hk.kind.String())
	}
	return n
}

// walk visits the nodes of the view in pre-order until fn returns false.
func (n *TreeNode) walk(fn func(*TreeNode) bool) {
	if n == nil {
		return
	}
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(v) {
			return
		}
		for i := len(v.Children) - 1; i >= 0; i-- {
			stack = append(stack, v.Children[i])
		}
	}
}

// Find returns the first node in pre-order named name, or nil.
func (n *TreeNode) Find(name string) *TreeNode {
	var found *TreeNode
	n.walk(func(v *TreeNode) bool {
		if v.Name == name {
			found = v
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the view.
func (n *TreeNode) Count() int {
	total := 0
	n.walk(func(*TreeNode) bool {
		total++
		return true
	})
	return total
}
