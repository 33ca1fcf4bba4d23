package fiber

import (
	"testing"

	"github.com/vango-dev/reconciler/pkg/vdom"
)

func TestCreateWorkInProgressResetsFlags(t *testing.T) {
	cur := &unit{id: 7, kind: unitHost, tag: "div", phase: PhaseCommitted}
	first := createWorkInProgress(cur, nil)
	if first.alternate != cur || cur.alternate != first || first.id != 7 {
		t.Fatalf("alternates not paired: %+v", first)
	}
	first.flags = flagUpdate | flagPlacement
	first.deletions = []*unit{{}}

	again := createWorkInProgress(cur, nil)
	if again != first {
		t.Fatal("alternate was not reused")
	}
	if again.flags != 0 || again.deletions != nil || again.phase != PhasePending {
		t.Errorf("wip = flags %v deletions %v phase %v, want reset", again.flags, again.deletions, again.phase)
	}
}

func TestUnitMatches(t *testing.T) {
	a := Define("A", func(*Hooks, vdom.Props) *vdom.Node { return nil })
	b := Define("B", func(*Hooks, vdom.Props) *vdom.Node { return nil })
	li := &unit{kind: unitHost, elem: vdom.Li()}
	comp := &unit{kind: unitComponent, elem: a.New(nil)}

	tests := []struct {
		name string
		u    *unit
		n    *vdom.Node
		want bool
	}{
		{"same tag", li, vdom.Li(vdom.Text("x")), true},
		{"other tag", li, vdom.Span(), false},
		{"text for element", li, vdom.Text("li"), false},
		{"same component", comp, a.Keyed("k", nil), true},
		{"other component", comp, b.New(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.matches(tt.n); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
