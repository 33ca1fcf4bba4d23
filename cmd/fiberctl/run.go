package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/demo"
	"github.com/vango-dev/reconciler/internal/dev"
	"github.com/vango-dev/reconciler/internal/errors"
)

type runOptions struct {
	configDir *string
	watch     bool
	trace     bool
	jsonOut   bool
}

func runCmd(configDir *string) *cobra.Command {
	opts := &runOptions{configDir: configDir}

	cmd := &cobra.Command{
		Use:   "run [scenario.yaml...]",
		Short: "Play scenarios against the demo tree",
		Long: `Play YAML scenarios against a fresh demo tree on a manual scheduler
and check their expectations. Without arguments the built-in sample
scenario is played.

Examples:
  fiberctl run
  fiberctl run scenarios/todo.yaml --trace
  fiberctl run scenarios/*.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run when a scenario or the config changes")
	cmd.Flags().BoolVarP(&opts.trace, "trace", "t", false, "Print the snapshot after every step")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	return cmd
}

func runScenarios(cmd *cobra.Command, files []string, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	failed := playAll(ctx, out, cmd.ErrOrStderr(), files, opts)
	if !opts.watch {
		if failed {
			return errSilent
		}
		return nil
	}
	if len(files) == 0 {
		warn(out, "Nothing to watch: the built-in scenario is not a file")
		return nil
	}

	watcher := dev.NewWatcher(dev.WatcherConfig{
		Paths: dev.CollectWatchPaths(*opts.configDir, files),
	})
	watcher.OnChange(func(c dev.Change) {
		info(out, "%s changed (%s), re-running", c.Path, c.Type)
		playAll(ctx, out, cmd.ErrOrStderr(), files, opts)
	})
	info(out, "Watching for changes. Press Ctrl+C to stop.")
	if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// playAll plays every scenario and reports whether any failed. The config
// is reloaded on every call.
func playAll(ctx context.Context, out, errOut io.Writer, files []string, opts *runOptions) bool {
	cfg, err := loadConfig(*opts.configDir)
	if err != nil {
		errors.Print(errOut, err)
		return true
	}
	logger := cfg.NewLogger(errOut)

	scenarios, err := loadScenarios(files)
	if err != nil {
		errors.Print(errOut, err)
		return true
	}

	failed := false
	for _, sc := range scenarios {
		r := &demo.Runner{Options: rootOptions(cfg, logger, nil)}
		if opts.trace && !opts.jsonOut {
			r.Trace = out
		}
		res, err := r.Run(ctx, sc)
		if opts.jsonOut && res != nil {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			_ = enc.Encode(res)
		}
		if err != nil {
			failed = true
			errors.Print(errOut, err)
			continue
		}
		if !opts.jsonOut {
			printResult(out, res)
		}
	}
	return failed
}

func loadScenarios(files []string) ([]*demo.Scenario, error) {
	if len(files) == 0 {
		sc, err := demo.Parse(demo.SampleScenario, "sample.yaml")
		if err != nil {
			return nil, err
		}
		return []*demo.Scenario{sc}, nil
	}

	scenarios := make([]*demo.Scenario, 0, len(files))
	for _, f := range files {
		sc, err := demo.Load(f)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func printResult(w io.Writer, res *demo.Result) {
	success(w, "%s: %d steps, %d commits", res.Name, res.Steps, res.Commits)
	info(w, "passes %d  yields %d  preempted %d  rendered %d  bail-outs %d",
		res.Stats.Passes, res.Stats.Yields, res.Stats.Preemptions,
		res.Stats.UnitsRendered, res.Stats.EagerBailouts)
	info(w, "digest %s", res.Digest)
	fmt.Fprintln(w)
}
