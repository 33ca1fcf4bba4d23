package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/reconciler/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fiberctl.json"

	// DefaultTimeSliceMs is the render budget per host task.
	DefaultTimeSliceMs = 5

	// DefaultMaxRerenders bounds render-phase self updates.
	DefaultMaxRerenders = 25

	// DefaultCommitBudget is the number of commits allowed per window.
	DefaultCommitBudget = 500

	// DefaultCommitWindowMs is the commit budget window.
	DefaultCommitWindowMs = 1000

	// DefaultInspectAddr is the inspector listen address.
	DefaultInspectAddr = "127.0.0.1:7070"

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "fiber"

	// DefaultSubsystem is the Prometheus subsystem.
	DefaultSubsystem = "reconciler"
)

// Config represents the complete fiberctl.json configuration.
type Config struct {
	// Runtime configures the reconciler root.
	Runtime RuntimeConfig `json:"runtime"`

	// Log configures structured logging.
	Log LogConfig `json:"log"`

	// Inspect configures the HTTP inspector.
	Inspect InspectConfig `json:"inspect"`

	// Metrics configures Prometheus metric names.
	Metrics MetricsConfig `json:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RuntimeConfig contains reconciler settings.
type RuntimeConfig struct {
	// TimeSliceMs is how long a render may run before yielding.
	TimeSliceMs int `json:"timeSliceMs,omitempty"`

	// MaxRerenders bounds render-phase self updates per unit.
	MaxRerenders int `json:"maxRerenders,omitempty"`

	// CommitBudget is the number of commits allowed per window. Zero
	// disables the guard.
	CommitBudget int `json:"commitBudget,omitempty"`

	// CommitWindowMs is the sliding window of the commit budget.
	CommitWindowMs int `json:"commitWindowMs,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// AllowedOrigins lists origins allowed to open the commit stream.
	// Empty allows same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// MetricsConfig contains metric naming settings.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for fiberctl.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault is Load, returning defaults when the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C201").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'fiberctl init' to write a default configuration").
				Wrap(err)
		}
		return nil, errors.New("C201").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C202").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C202").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C201").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Runtime.TimeSliceMs == 0 {
		c.Runtime.TimeSliceMs = DefaultTimeSliceMs
	}
	if c.Runtime.MaxRerenders == 0 {
		c.Runtime.MaxRerenders = DefaultMaxRerenders
	}
	if c.Runtime.CommitBudget == 0 {
		c.Runtime.CommitBudget = DefaultCommitBudget
	}
	if c.Runtime.CommitWindowMs == 0 {
		c.Runtime.CommitWindowMs = DefaultCommitWindowMs
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Subsystem == "" {
		c.Metrics.Subsystem = DefaultSubsystem
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		e := errors.New("C202").WithDetail(detail)
		if c.configPath != "" {
			e.Location = &errors.Location{File: c.configPath}
		}
		return e
	}

	if c.Runtime.TimeSliceMs < 0 {
		return invalid("runtime.timeSliceMs must not be negative")
	}
	if c.Runtime.MaxRerenders < 1 {
		return invalid("runtime.maxRerenders must be at least 1")
	}
	if c.Runtime.CommitBudget < 0 {
		return invalid("runtime.commitBudget must not be negative")
	}
	if c.Runtime.CommitWindowMs < 0 {
		return invalid("runtime.commitWindowMs must not be negative")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json")
	}
	return nil
}

// TimeSlice returns the runtime time slice as a duration.
func (c *Config) TimeSlice() time.Duration {
	return time.Duration(c.Runtime.TimeSliceMs) * time.Millisecond
}

// CommitWindow returns the commit budget window as a duration.
func (c *Config) CommitWindow() time.Duration {
	return time.Duration(c.Runtime.CommitWindowMs) * time.Millisecond
}

// NewLogger builds a slog logger writing to w with the configured level
// and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if c.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Exists checks if a fiberctl.json file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
