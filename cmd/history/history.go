// Package history provides the "sheetkit history" commands for the run journal.
package history

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/fs"
	"github.com/klytics/sheetkit/internal/output"
)

// NewCommand creates the "history" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View and manage the run journal",
		Long: `Lists past extract, aggregate and convert runs recorded in the journal.
Enable the journal with: sheetkit config set audit.enabled true`,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func journalPath() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return config.ExpandHome(cfg.Audit.File), nil
}

func newListCmd() *cobra.Command {
	var (
		last    int
		command string
		since   string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"log"},
		Short:   "Show recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := journalPath()
			if err != nil {
				return err
			}
			entries, err := audit.ReadEntries(path)
			if err != nil {
				return err
			}

			var sinceTime time.Time
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err)
				}
				sinceTime = t
			}

			filtered := audit.FilterEntries(entries, sinceTime, command)
			if last > 0 && len(filtered) > last {
				filtered = filtered[len(filtered)-last:]
			}

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON(out, "history", filtered)
			}

			if len(filtered) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			fmt.Fprintf(out, "Run journal: %d entries\n", len(filtered))
			fmt.Fprintf(out, "File: %s\n\n", path)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "TIMESTAMP\tCOMMAND\tFILES\tOK\tFAILED\tDURATION\tRUN\n")
			for _, e := range filtered {
				ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
				dur := fmt.Sprintf("%dms", e.DurationMs)
				if e.DurationMs >= 1000 {
					dur = fmt.Sprintf("%.1fs", float64(e.DurationMs)/1000)
				}
				id := e.RunID
				if len(id) > 8 {
					id = id[:8]
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n", ts, e.Command, len(e.Inputs), e.Succeeded, e.Failed, dur, id)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show last N entries")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command name (extract, aggregate, convert)")
	cmd.Flags().StringVar(&since, "since", "", "Filter entries since date (YYYY-MM-DD)")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the run journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := journalPath()
			if err != nil {
				return err
			}
			if err := audit.Clear(path); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"cleared": path})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run journal cleared: %s\n", path)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show journal path and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path := config.ExpandHome(cfg.Audit.File)
			size := audit.LogSize(path)
			entries, _ := audit.ReadEntries(path)
			out := cmd.OutOrStdout()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"enabled": cfg.Audit.Enabled,
					"path":    path,
					"size":    size,
					"entries": len(entries),
				})
			}

			fmt.Fprintf(out, "Journal:   %s\n", path)
			fmt.Fprintf(out, "Enabled:   %v\n", cfg.Audit.Enabled)
			if size == 0 {
				fmt.Fprintln(out, "Size:      empty (no entries)")
			} else {
				fmt.Fprintf(out, "Size:      %s\n", fs.FormatSize(size))
			}
			fmt.Fprintf(out, "Entries:   %d\n", len(entries))
			return nil
		},
	}
}
