package memhost

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/reconciler/pkg/vdom"
)

func TestBuildAndSnapshot(t *testing.T) {
	h := New()
	h.PrepareCommit()
	ul := h.CreateElement("ul", vdom.Props{"class": "list", "key": "k", "onclick": func() {}})
	li := h.CreateElement("li", nil)
	h.AppendChild(li, h.CreateText("a < b"))
	h.AppendChild(ul, li)
	h.InsertBefore(h.Container(), ul, nil)
	h.ResetAfterCommit()

	want := `<ul class="list"><li>a &lt; b</li></ul>`
	if got := h.Snapshot(); got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if got := h.Commits(); got != 1 {
		t.Errorf("Commits() = %d, want 1", got)
	}
}

func TestInsertBeforeMovesAttachedChild(t *testing.T) {
	h := New()
	root := h.Container()
	a := h.CreateText("a")
	b := h.CreateText("b")
	c := h.CreateText("c")
	h.AppendChild(root, a)
	h.AppendChild(root, b)
	h.AppendChild(root, c)
	h.ResetOps()

	h.InsertBefore(root, c, a)
	if got := h.Snapshot(); got != "cab" {
		t.Errorf("Snapshot() = %q, want cab", got)
	}

	want := []vdom.Patch{{Op: vdom.PatchMoveNode, ID: "h3", Value: "#text", ParentID: "h0", Index: 0}}
	if diff := cmp.Diff(want, h.Ops()); diff != "" {
		t.Errorf("Ops() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitUpdateAndText(t *testing.T) {
	h := New()
	div := h.CreateElement("div", vdom.Props{"id": "x", "title": "t"})
	txt := h.CreateText("old")
	h.AppendChild(div, txt)
	h.AppendChild(h.Container(), div)

	h.CommitUpdate(div, []vdom.PropChange{{Key: "id", Value: 7}, {Key: "title", Removed: true}})
	h.CommitText(txt, "new")

	if got, want := h.Snapshot(), `<div id="7">new</div>`; got != want {
		t.Errorf("Snapshot() = %s, want %s", got, want)
	}
	if h.Find("h2") == nil || h.Find("h2").Text != "new" {
		t.Errorf("Find(h2) = %+v, want text node", h.Find("h2"))
	}
}

func TestRemoveChild(t *testing.T) {
	h := New()
	a := h.CreateText("a")
	h.AppendChild(h.Container(), a)
	before := h.Digest()

	h.RemoveChild(h.Container(), a)
	if got := h.Snapshot(); got != "" {
		t.Errorf("Snapshot() = %q, want empty", got)
	}
	if h.Digest() == before {
		t.Error("Digest() unchanged after removal")
	}
}

func TestSubscribe(t *testing.T) {
	h := New()
	var got []Commit
	unsub := h.Subscribe(func(c Commit) { got = append(got, c) })

	h.PrepareCommit()
	h.AppendChild(h.Container(), h.CreateText("x"))
	h.ResetAfterCommit()

	unsub()
	h.PrepareCommit()
	h.ResetAfterCommit()

	if len(got) != 1 {
		t.Fatalf("received %d commits, want 1", len(got))
	}
	if got[0].Seq != 1 || len(got[0].Ops) != 1 {
		t.Errorf("commit = %+v, want seq 1 with one op", got[0])
	}
}
