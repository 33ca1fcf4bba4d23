// Package metrics records reconciler activity as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.New(metrics.WithRegistry(reg))
//	root := fiber.NewRoot(container, mutator, fiber.WithMetrics(rec))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/reconciler/pkg/fiber"
)

// Config configures the Prometheus recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "fiber").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reconciler").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render and commit durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "fiber",
		Subsystem: "reconciler",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder implements fiber.Metrics.
type Recorder struct {
	unitsRendered  prometheus.Counter
	commits        prometheus.Counter
	passes         *prometheus.CounterVec
	yields         prometheus.Counter
	eagerBailouts  prometheus.Counter
	effectsRun     *prometheus.CounterVec
	effectFailures *prometheus.CounterVec
	hookViolations prometheus.Counter
	commitDuration prometheus.Histogram
	renderDuration *prometheus.HistogramVec
}

var _ fiber.Metrics = (*Recorder)(nil)

// New registers the reconciler metrics and returns their recorder.
//
// Metrics collected (with the default namespace and subsystem):
//   - fiber_reconciler_units_rendered_total
//   - fiber_reconciler_commits_total
//   - fiber_reconciler_render_passes_total{result}
//   - fiber_reconciler_yields_total
//   - fiber_reconciler_eager_bailouts_total
//   - fiber_reconciler_effects_run_total{phase}
//   - fiber_reconciler_effect_failures_total{phase}
//   - fiber_reconciler_hook_violations_total
//   - fiber_reconciler_commit_duration_seconds
//   - fiber_reconciler_render_duration_seconds{result}
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Recorder{
		unitsRendered:  counter("units_rendered_total", "Total number of units whose render step ran"),
		commits:        counter("commits_total", "Total number of commits"),
		passes:         counterVec("render_passes_total", "Total number of render passes by result", "result"),
		yields:         counter("yields_total", "Total number of times a pass yielded to the host"),
		eagerBailouts:  counter("eager_bailouts_total", "Total number of updates dropped at dispatch"),
		effectsRun:     counterVec("effects_run_total", "Total number of effect setups run", "phase"),
		effectFailures: counterVec("effect_failures_total", "Total number of recovered effect panics", "phase"),
		hookViolations: counter("hook_violations_total", "Total number of hook order violations"),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds, from start to commit or discard",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"result"}),
	}
}

// UnitsRendered implements fiber.Metrics.
func (r *Recorder) UnitsRendered(n int) {
	r.unitsRendered.Add(float64(n))
}

// PassFinished implements fiber.Metrics.
func (r *Recorder) PassFinished(result string, d time.Duration) {
	r.passes.WithLabelValues(result).Inc()
	r.renderDuration.WithLabelValues(result).Observe(d.Seconds())
}

// Committed implements fiber.Metrics.
func (r *Recorder) Committed(d time.Duration) {
	r.commits.Inc()
	r.commitDuration.Observe(d.Seconds())
}

// Yielded implements fiber.Metrics.
func (r *Recorder) Yielded() {
	r.yields.Inc()
}

// EagerBailout implements fiber.Metrics.
func (r *Recorder) EagerBailout() {
	r.eagerBailouts.Inc()
}

// EffectRan implements fiber.Metrics.
func (r *Recorder) EffectRan(phase string) {
	r.effectsRun.WithLabelValues(phase).Inc()
}

// EffectFailed implements fiber.Metrics.
func (r *Recorder) EffectFailed(phase string) {
	r.effectFailures.WithLabelValues(phase).Inc()
}

// HookViolation implements fiber.Metrics.
func (r *Recorder) HookViolation() {
	r.hookViolations.Inc()
}
