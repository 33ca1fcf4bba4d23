package fiber

import "time"

// Metrics observes runtime activity. pkg/metrics provides a Prometheus
// implementation.
type Metrics interface {
	// UnitsRendered is called once per pass with the number of units whose
	// render step ran.
	UnitsRendered(n int)
	// PassFinished is called when a pass ends. result is one of
	// "committed", "aborted", "preempted", "abandoned" or "storm".
	PassFinished(result string, d time.Duration)
	// Committed is called after every commit with its duration.
	Committed(d time.Duration)
	// Yielded is called when a pass gives control back to the host.
	Yielded()
	// EagerBailout is called when an update is dropped at dispatch.
	EagerBailout()
	// EffectRan is called per effect setup; phase is "layout" or "passive".
	EffectRan(phase string)
	// EffectFailed is called per recovered effect panic.
	EffectFailed(phase string)
	// HookViolation is called per hook order violation.
	HookViolation()
}

type nopMetrics struct{}

func (nopMetrics) UnitsRendered(int)                  {}
func (nopMetrics) PassFinished(string, time.Duration) {}
func (nopMetrics) Committed(time.Duration)            {}
func (nopMetrics) Yielded()                           {}
func (nopMetrics) EagerBailout()                      {}
func (nopMetrics) EffectRan(string)                   {}
func (nopMetrics) EffectFailed(string)                {}
func (nopMetrics) HookViolation()                     {}
