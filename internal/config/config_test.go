package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/reconciler/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Runtime.TimeSliceMs != DefaultTimeSliceMs {
		t.Errorf("Runtime.TimeSliceMs = %d, want %d", cfg.Runtime.TimeSliceMs, DefaultTimeSliceMs)
	}
	if cfg.Runtime.MaxRerenders != DefaultMaxRerenders {
		t.Errorf("Runtime.MaxRerenders = %d, want %d", cfg.Runtime.MaxRerenders, DefaultMaxRerenders)
	}
	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want %q", cfg.Inspect.Addr, DefaultInspectAddr)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want info/text", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Code != "C201" {
		t.Errorf("error = %v, want C201", err)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Error("missing config error should wrap os.ErrNotExist")
	}

	configJSON := `{
  "runtime": {"timeSliceMs": 2, "maxRerenders": 10},
  "log": {"level": "debug", "format": "json"},
  "inspect": {"addr": ":9000", "allowedOrigins": ["http://localhost:3000"]}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimeSlice() != 2*time.Millisecond {
		t.Errorf("TimeSlice() = %v, want 2ms", cfg.TimeSlice())
	}
	if cfg.Runtime.MaxRerenders != 10 {
		t.Errorf("MaxRerenders = %d, want 10", cfg.Runtime.MaxRerenders)
	}
	if cfg.Runtime.CommitBudget != DefaultCommitBudget {
		t.Errorf("CommitBudget = %d, want default %d", cfg.Runtime.CommitBudget, DefaultCommitBudget)
	}
	if cfg.CommitWindow() != time.Second {
		t.Errorf("CommitWindow() = %v, want 1s", cfg.CommitWindow())
	}
	if cfg.Inspect.Addr != ":9000" || len(cfg.Inspect.AllowedOrigins) != 1 {
		t.Errorf("Inspect = %+v", cfg.Inspect)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"runtime": `},
		{"negative slice", `{"runtime": {"timeSliceMs": -1}}`},
		{"bad level", `{"log": {"level": "loud"}}`},
		{"bad format", `{"log": {"format": "xml"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(dir)
			var ce *errors.Error
			if !stderrors.As(err, &ce) || ce.Code != "C202" {
				t.Errorf("Load() error = %v, want C202", err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Runtime.MaxRerenders != DefaultMaxRerenders {
		t.Errorf("MaxRerenders = %d, want default", cfg.Runtime.MaxRerenders)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Runtime.CommitBudget = 42
	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if !Exists(dir) {
		t.Fatal("Exists() = false after SaveTo")
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Runtime.CommitBudget != 42 {
		t.Errorf("CommitBudget = %d, want 42", loaded.Runtime.CommitBudget)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %q, want JSON warn record", out)
	}
}
