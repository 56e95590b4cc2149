package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/antiwork/shortest/pkg/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newRunsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [test-key]",
		Short: "List recorded test runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 1 {
				key = args[0]
			}

			runs, err := store.OpenInCacheDir(cfg.Store.CacheDir)
			if err != nil {
				return err
			}
			defer runs.Close()

			records, err := runs.ListRuns(cmd.Context(), key, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("STARTED", "STATUS", "STEPS", "TOKENS", "CACHED", "TEST")
			for _, rec := range records {
				t.Row(
					rec.StartedAt.Local().Format(time.DateTime),
					string(rec.Status),
					strconv.Itoa(len(rec.Steps)),
					strconv.Itoa(rec.Usage.TotalTokens),
					strconv.FormatBool(rec.FromCache),
					rec.TestKey,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs shown (0 for all)")
	return cmd
}
