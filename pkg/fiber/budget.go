package fiber

import "time"

// slidingWindow counts events within a time window.
type slidingWindow struct {
	events     []time.Time
	windowSize time.Duration
	maxEvents  int
	now        func() time.Time
}

func newSlidingWindow(windowSize time.Duration, maxEvents int) *slidingWindow {
	if windowSize <= 0 {
		windowSize = time.Second
	}
	return &slidingWindow{
		windowSize: windowSize,
		maxEvents:  maxEvents,
		now:        time.Now,
	}
}

// tryAdd records an event. It returns false, without recording, if the
// window is full.
func (w *slidingWindow) tryAdd() bool {
	if w == nil || w.maxEvents == 0 {
		return true // No limit
	}

	now := w.now()
	cutoff := now.Add(-w.windowSize)

	// Remove old events outside the window
	validIdx := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			w.events[validIdx] = t
			validIdx++
		}
	}
	w.events = w.events[:validIdx]

	if len(w.events) >= w.maxEvents {
		return false
	}

	w.events = append(w.events, now)
	return true
}

// count returns the current number of events in the window.
func (w *slidingWindow) count() int {
	if w == nil {
		return 0
	}
	cutoff := w.now().Add(-w.windowSize)
	n := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
