package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"folderwatch/pkg/journal"
)

// newHistoryCmd creates the "folderwatch history" subcommand.
func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		path  string
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed triggers from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.journalPath == "" {
				return fmt.Errorf("--journal is required")
			}
			j, err := journal.OpenExisting(opts.journalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			q := journal.QueryOpts{Path: path, Limit: limit}
			if since > 0 {
				after := time.Now().Add(-since)
				q.After = &after
			}
			rows, err := j.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of triggers to show")
	cmd.Flags().StringVar(&path, "path", "", "only show triggers for this directory")
	cmd.Flags().DurationVar(&since, "since", 0, "only show triggers newer than this (e.g. 1h)")
	return cmd
}

func printHistory(w io.Writer, rows []journal.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no triggers recorded")
		return
	}
	for _, r := range rows {
		status := fmt.Sprintf("%d launched", r.Launched)
		if r.Failed > 0 {
			status += fmt.Sprintf(", %d failed", r.Failed)
		}
		fmt.Fprintf(w, "%s  %s  %s  (%s)\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Path, r.Change, status)
		if len(r.Commands) > 0 {
			fmt.Fprintf(w, "    $ %s\n", strings.Join(r.Commands, "; "))
		}
	}
}
