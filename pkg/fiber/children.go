package fiber

import (
	"strconv"

	"github.com/vango-dev/reconciler/pkg/vdom"
)

// slot identifies a child among its siblings: by key when it has one,
// otherwise by position.
func slot(key string, index int) string {
	if key != "" {
		return "k:" + key
	}
	return "i:" + strconv.Itoa(index)
}

// reconcileChildren builds the work-in-progress children of wip from the
// descriptions children, reusing committed units whose slot and type
// match. Nil descriptions render nothing but keep their position.
func (r *Root) reconcileChildren(current, wip *unit, children []*vdom.Node) {
	tracking := current != nil

	var oldList []*unit
	old := make(map[string]*unit)
	if tracking {
		for c := current.child; c != nil; c = c.sibling {
			oldList = append(oldList, c)
			k := slot(c.key, c.index)
			if old[k] != nil {
				k = "dup:" + strconv.Itoa(c.index)
			}
			old[k] = c
		}
	}

	var first, prev *unit
	seen := make(map[string]bool, len(children))
	lastPlaced := 0
	for i, n := range children {
		if n == nil {
			continue
		}
		k := slot(n.Key, i)
		if seen[k] {
			r.logger.Warn("duplicate key among siblings", "parent", wip.Name(), "key", n.Key)
			k = "dup:" + strconv.Itoa(i)
		}
		seen[k] = true

		var u *unit
		if o := old[k]; o != nil && o.matches(n) {
			delete(old, k)
			u = createWorkInProgress(o, n)
			if o.index < lastPlaced {
				u.flags |= flagPlacement
			} else {
				lastPlaced = o.index
			}
		} else {
			u = r.newUnit(n)
			if tracking {
				u.flags |= flagPlacement
			}
		}
		u.index = i
		u.parent = wip
		u.sibling = nil
		if prev == nil {
			first = u
		} else {
			prev.sibling = u
		}
		prev = u
	}
	wip.child = first

	for _, o := range oldList {
		if !contains(old, o) {
			continue
		}
		wip.deletions = append(wip.deletions, o)
		wip.flags |= flagChildDeletion
	}
}

func contains(m map[string]*unit, u *unit) bool {
	if m[slot(u.key, u.index)] == u {
		return true
	}
	return m["dup:"+strconv.Itoa(u.index)] == u
}
