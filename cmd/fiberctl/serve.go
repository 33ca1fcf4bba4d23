package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/config"
	"github.com/vango-dev/reconciler/internal/demo"
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/inspect"
	"github.com/vango-dev/reconciler/pkg/metrics"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [scenario.yaml]",
		Short: "Serve the inspector for a demo tree on an event loop",
		Long: `Mount the demo tree on a time-sliced event loop, serve the HTTP
inspector and play a scenario one step per interval.

Inspector routes:
  /healthz  /tree  /snapshot  /stats  /metrics  /ws (commit stream)

Examples:
  fiberctl serve
  fiberctl serve scenarios/todo.yaml --addr=:7070 --interval=1s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configDir, args, addr, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from "+config.ConfigFileName+")")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 500*time.Millisecond, "Delay between scenario steps")

	return cmd
}

func runServe(cmd *cobra.Command, configDir string, files []string, addr string, interval time.Duration) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Inspect.Addr
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	scenarios, err := loadScenarios(files)
	if err != nil {
		return err
	}
	sc := scenarios[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(
		metrics.WithRegistry(reg),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
	)

	loop := host.NewLoop(
		host.WithTimeSlice(cfg.TimeSlice()),
		host.WithLoopLogger(logger.With("component", "host-loop")),
	)
	go func() { _ = loop.Run(ctx) }()

	session := demo.NewSession(loop, rootOptions(cfg, logger, rec)...)
	if err := session.Mount(ctx); err != nil {
		return err
	}

	srv := inspect.New(session.Root, session.Host,
		inspect.WithGatherer(reg),
		inspect.WithAllowedOrigins(cfg.Inspect.AllowedOrigins...),
		inspect.WithLogger(logger.With("component", "inspect")),
	)
	defer srv.Close()

	success(out, "Inspector on http://%s", addr)
	info(out, "Playing %q, one step every %s. Press Ctrl+C to stop.", sc.Name, interval)

	go playSlowly(ctx, session, sc, interval, out)

	return srv.ListenAndServe(ctx, addr)
}

// playSlowly applies one step per interval. Failures are printed and stop
// the playback; the inspector keeps serving the last state.
func playSlowly(ctx context.Context, s *demo.Session, sc *demo.Scenario, interval time.Duration, out io.Writer) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, step := range sc.Steps {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.Apply(ctx, step); err != nil {
			if ctx.Err() == nil {
				warn(out, "step %d (%s): %v", i+1, step, err)
			}
			return
		}
		info(out, "%3d  %s", i+1, step)
	}
	success(out, "%s finished: %d commits, digest %016x", sc.Name, s.Host.Commits(), s.Host.Digest())
}
