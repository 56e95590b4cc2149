package main

import (
	"fmt"

	"github.com/antiwork/shortest/pkg/runner"
	"github.com/antiwork/shortest/pkg/store"
	"github.com/spf13/cobra"
)

func newTestCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [pattern]",
		Short: "Run test files matching pattern (default runner.test_pattern)",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return c.bind(cmd.Flags(), map[string]string{
				"headless": "browser.headless",
				"target":   "browser.base_url",
				"no-cache": "runner.no_cache",
				"parallel": "runner.parallel",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.load()
			if err != nil {
				return err
			}
			pattern := cfg.Runner.TestPattern
			if len(args) == 1 {
				pattern = args[0]
			}

			runs, err := store.OpenInCacheDir(cfg.Store.CacheDir)
			if err != nil {
				return err
			}
			defer runs.Close()

			a, err := newApp(ctx, cfg, cfg.Runner.Parallel)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					cliLog.Warnf("browser shutdown: %v", err)
				}
			}()

			opts := append(a.runnerOptions(),
				runner.WithRoot(cfg.Runner.TestDir),
				runner.WithParallel(cfg.Runner.Parallel),
				runner.WithNoCache(cfg.Runner.NoCache),
				runner.WithRunRepository(runs),
				runner.WithReporter(runner.NewConsoleReporter(cmd.OutOrStdout())),
				runner.WithArtifacts(runner.NewArtifactWriter(store.ResultsDir(cfg.Store.CacheDir))),
			)
			summary, err := runner.NewTestRunner(a.provider, a.sessions, opts...).Run(ctx, pattern)
			if err != nil {
				return err
			}
			if !summary.Success() {
				return fmt.Errorf("%d test(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("target", "", "base URL of the application under test")
	cmd.Flags().Bool("no-cache", false, "ignore cached steps of passing runs")
	cmd.Flags().Int("parallel", runner.DefaultParallel, "maximum number of tests run at once")
	return cmd
}
