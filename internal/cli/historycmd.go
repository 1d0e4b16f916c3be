package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"rocket-cli/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past invocations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent invocations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		entries, err := deps.History.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search past prompts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		entries, err := deps.History.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		stats, err := deps.History.Stats(cmd.Context())
		if err != nil {
			return err
		}

		r := newRenderer()
		r.KeyValues([][2]string{
			{"total", fmt.Sprint(stats.Total)},
			{"succeeded", fmt.Sprint(stats.Succeeded)},
			{"failed", fmt.Sprint(stats.Failed)},
			{"tokens", fmt.Sprint(stats.TotalTokens)},
		})
		if len(stats.ByCommand) > 0 {
			r.Println("")
			r.Header("by command")
			r.KeyValues(sortedCounts(stats.ByCommand))
		}
		if len(stats.ByProvider) > 0 {
			r.Println("")
			r.Header("by provider")
			r.KeyValues(sortedCounts(stats.ByProvider))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		if err := deps.History.Clear(cmd.Context()); err != nil {
			return err
		}
		newRenderer().Success("history cleared")
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	historyCmd.AddCommand(historyListCmd, historySearchCmd, historyStatsCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func printEntries(entries []history.Entry) {
	r := newRenderer()
	if len(entries) == 0 {
		r.Println("no history yet")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		rows = append(rows, []string{
			e.Time.Format(time.DateTime),
			e.Command,
			truncate(e.Prompt, 48),
			e.Provider,
			status,
		})
	}
	r.Table([]string{"TIME", "COMMAND", "PROMPT", "PROVIDER", "STATUS"}, rows)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func sortedCounts(m map[string]int) [][2]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, fmt.Sprint(m[k])})
	}
	return pairs
}
