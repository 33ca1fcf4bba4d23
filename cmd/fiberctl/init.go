package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/config"
	"github.com/vango-dev/reconciler/internal/demo"
	"github.com/vango-dev/reconciler/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default fiberctl.json and a sample scenario",
		Long: `Write a default fiberctl.json and scenarios/todo.yaml into dir
(default: the working directory).

Examples:
  fiberctl init
  fiberctl init ./playground --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	out := cmd.OutOrStdout()
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	scenarioPath := filepath.Join(dir, "scenarios", "todo.yaml")

	if !force {
		for _, p := range []string{cfgPath, scenarioPath} {
			if _, err := os.Stat(p); err == nil {
				return errors.Newf(errors.CategoryCLI, "%s already exists", p).
					WithSuggestion("Use --force to overwrite it")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(scenarioPath), 0755); err != nil {
		return err
	}
	if err := config.New().SaveTo(cfgPath); err != nil {
		return err
	}
	if err := os.WriteFile(scenarioPath, demo.SampleScenario, 0644); err != nil {
		return err
	}

	success(out, "Wrote %s", cfgPath)
	success(out, "Wrote %s", scenarioPath)
	info(out, "Run it with: fiberctl run %s", scenarioPath)
	return nil
}
