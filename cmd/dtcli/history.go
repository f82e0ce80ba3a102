package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/dtcli/internal/history"
	"github.com/grovetools/dtcli/internal/tracker"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently followed runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := history.Load(configDir)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
			return nil
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderHistory(records, time.Now()))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 for all)")
}

func renderHistory(records []history.Record, now time.Time) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		status := formatStatus(tracker.Status(r.Status))
		if r.Reason != tracker.EvictTerminal.String() {
			status = mutedStyle.Render(r.Reason)
		}
		rows[i] = []string{
			formatRelativeTime(r.FinishedAt, now),
			r.Kind,
			strconv.Itoa(r.ResourceID),
			r.Name,
			status,
			fmt.Sprintf("%d%%", r.Percentage),
			r.FinishedAt.Sub(r.LaunchedAt).Round(time.Second).String(),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FINISHED", "KIND", "ID", "NAME", "STATUS", "DONE", "DURATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.Render()
}

// formatRelativeTime converts a time.Time to a human-readable string.
func formatRelativeTime(t, now time.Time) string {
	delta := now.Sub(t)

	switch {
	case delta < time.Minute:
		return fmt.Sprintf("%ds ago", int(delta.Seconds()))
	case delta < time.Hour:
		return fmt.Sprintf("%dm ago", int(delta.Minutes()))
	case delta < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(delta.Hours()))
	case delta < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(delta.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
