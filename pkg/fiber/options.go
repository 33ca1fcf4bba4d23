package fiber

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/pkg/host"
)

const (
	// DefaultMaxRerenders bounds render-phase self updates per render.
	DefaultMaxRerenders = 25

	// DefaultMaxNestedPasses bounds the passes one Flush may run before it
	// reports an update storm.
	DefaultMaxNestedPasses = 50

	defaultTracerName = "reconciler"
)

// Config configures a Root.
type Config struct {
	// Scheduler defers flushes and answers should-yield queries.
	// Default: a host.Queue that the caller drains.
	Scheduler host.Scheduler

	// Logger receives debug records for passes and errors reported by the
	// default error handler.
	// Default: slog.Default().With("component", "reconciler")
	Logger *slog.Logger

	// Tracer creates render, commit and passive effect spans.
	// Default: otel.Tracer("reconciler")
	Tracer trace.Tracer

	// Metrics observes runtime activity. Default: no-op.
	Metrics Metrics

	// OnError receives render errors and effect failures. When nil they
	// are logged at error level.
	OnError func(error)

	// MaxRerenders bounds render-phase self updates.
	MaxRerenders int

	// MaxNestedPasses bounds the passes a single Flush runs.
	MaxNestedPasses int

	// CommitBudget is the number of commits allowed per CommitWindow.
	// Zero disables the guard.
	CommitBudget int

	// CommitWindow is the window of CommitBudget. Default: one second.
	CommitWindow time.Duration

	// DefaultLane is the lane of updates dispatched without one.
	DefaultLane Lane
}

// Option configures a Root.
type Option func(*Config)

// WithScheduler sets the host scheduler.
func WithScheduler(s host.Scheduler) Option {
	return func(c *Config) {
		c.Scheduler = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = tracer
	}
}

// WithMetrics sets the metrics observer.
func WithMetrics(m Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithOnError sets the error handler.
func WithOnError(fn func(error)) Option {
	return func(c *Config) {
		c.OnError = fn
	}
}

// WithMaxRerenders sets the render-phase update limit.
func WithMaxRerenders(n int) Option {
	return func(c *Config) {
		c.MaxRerenders = n
	}
}

// WithMaxNestedPasses sets the per-Flush pass limit.
func WithMaxNestedPasses(n int) Option {
	return func(c *Config) {
		c.MaxNestedPasses = n
	}
}

// WithCommitBudget aborts passes with ErrUpdateStorm once more than n
// commits happened within window.
func WithCommitBudget(n int, window time.Duration) Option {
	return func(c *Config) {
		c.CommitBudget = n
		c.CommitWindow = window
	}
}

// WithDefaultLane sets the lane of updates dispatched without one.
func WithDefaultLane(lane Lane) Option {
	return func(c *Config) {
		c.DefaultLane = lane
	}
}

// defaultConfig returns the default root configuration.
func defaultConfig() Config {
	return Config{
		MaxRerenders:    DefaultMaxRerenders,
		MaxNestedPasses: DefaultMaxNestedPasses,
		CommitWindow:    time.Second,
		DefaultLane:     DefaultLane,
	}
}

func (c *Config) applyDefaults() {
	if c.Scheduler == nil {
		c.Scheduler = host.NewQueue()
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "reconciler")
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(defaultTracerName)
	}
	if c.Metrics == nil {
		c.Metrics = nopMetrics{}
	}
	if c.MaxRerenders <= 0 {
		c.MaxRerenders = DefaultMaxRerenders
	}
	if c.MaxNestedPasses <= 0 {
		c.MaxNestedPasses = DefaultMaxNestedPasses
	}
	if c.CommitWindow <= 0 {
		c.CommitWindow = time.Second
	}
	if c.DefaultLane == NoLane {
		c.DefaultLane = DefaultLane
	}
}
