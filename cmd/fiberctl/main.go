package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/config"
	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/fiber"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errSilent marks a failure that was already printed.
var errSilent = stderrors.New("fiberctl: failed")

// colors is false when stdout is not a terminal.
var colors = true

func main() {
	os.Exit(report(os.Stderr, newRootCmd().Execute()))
}

// report prints err unless it was already printed and returns the exit
// code.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if !stderrors.Is(err, errSilent) {
		errors.Print(w, err)
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "fiberctl",
		Short: "Drive and inspect the incremental reconciler",
		Long: `fiberctl runs scripted update scenarios against a demo component tree
rendered by the incremental reconciler, and serves a live inspector for
a running tree.

  • run     play YAML scenarios and check their expectations
  • serve   play a scenario on an event loop behind an HTTP inspector
  • init    write fiberctl.json and a sample scenario`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupColors()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing "+config.ConfigFileName)

	rootCmd.AddCommand(
		runCmd(&configDir),
		serveCmd(&configDir),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

func setupColors() {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return
	}
	colors = false
	errors.DisableColors()
}

// loadConfig reads fiberctl.json from dir, falling back to defaults.
func loadConfig(dir string) (*config.Config, error) {
	return config.LoadOrDefault(dir)
}

// rootOptions maps the runtime section of cfg to root options.
func rootOptions(cfg *config.Config, logger *slog.Logger, m fiber.Metrics) []fiber.Option {
	opts := []fiber.Option{
		fiber.WithLogger(logger.With("component", "reconciler")),
		fiber.WithMaxRerenders(cfg.Runtime.MaxRerenders),
		fiber.WithCommitBudget(cfg.Runtime.CommitBudget, cfg.CommitWindow()),
	}
	if m != nil {
		opts = append(opts, fiber.WithMetrics(m))
	}
	return opts
}

func paint(code, text string) string {
	if !colors {
		return text
	}
	return "\033[" + code + "m" + text + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("32", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("33", "⚠"), fmt.Sprintf(format, args...))
}
