package fiber

import (
	"testing"
	"time"
)

func TestSlidingWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	w := newSlidingWindow(time.Second, 2)
	w.now = func() time.Time { return now }

	if !w.tryAdd() || !w.tryAdd() {
		t.Fatal("tryAdd() = false within budget")
	}
	if w.tryAdd() {
		t.Error("tryAdd() = true over budget")
	}
	if got := w.count(); got != 2 {
		t.Errorf("count() = %d, want 2", got)
	}

	now = now.Add(1500 * time.Millisecond)
	if !w.tryAdd() {
		t.Error("tryAdd() = false after window elapsed")
	}
	if got := w.count(); got != 1 {
		t.Errorf("count() = %d, want 1", got)
	}

	var nilWindow *slidingWindow
	if !nilWindow.tryAdd() {
		t.Error("nil window tryAdd() = false, want true")
	}
}
