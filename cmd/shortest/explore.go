package main

import (
	"github.com/antiwork/shortest/pkg/runner"
	"github.com/spf13/cobra"
)

func discoveryFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("target", "", "base URL of the application under test")
	cmd.Flags().String("out", "", "directory test files are written to (default runner.test_dir)")
}

func bindDiscoveryFlags(c *cli) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return c.bind(cmd.Flags(), map[string]string{
			"headless": "browser.headless",
			"target":   "browser.base_url",
		})
	}
}

func discoveryOptions(cmd *cobra.Command, a *app) []runner.Option {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = a.cfg.Runner.TestDir
	}
	return append(a.runnerOptions(),
		runner.WithOutputDir(out),
		runner.WithReporter(runner.NewConsoleReporter(cmd.OutOrStdout())),
	)
}

func newExploreCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "explore",
		Short:   "Discover user flows and write them as natural language tests",
		Args:    cobra.NoArgs,
		PreRunE: bindDiscoveryFlags(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.load()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, 1)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					cliLog.Warnf("browser shutdown: %v", err)
				}
			}()

			_, err = runner.NewExplorerRunner(a.provider, a.sessions, discoveryOptions(cmd, a)...).DiscoverFlows(ctx)
			return err
		},
	}
	discoveryFlags(cmd)
	return cmd
}

func newCrawlCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "crawl",
		Short:   "Discover user flows and write them as tests with recorded actions",
		Args:    cobra.NoArgs,
		PreRunE: bindDiscoveryFlags(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.load()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, 1)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					cliLog.Warnf("browser shutdown: %v", err)
				}
			}()

			_, err = runner.NewCrawlerRunner(a.provider, a.sessions, discoveryOptions(cmd, a)...).DiscoverFlows(ctx)
			return err
		},
	}
	discoveryFlags(cmd)
	return cmd
}
