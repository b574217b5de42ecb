package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"folderwatch/pkg/config"
)

// newListCmd creates the "folderwatch list" subcommand.
func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print configured entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := config.NewStore(opts.configPath).Load()
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load config: %w", err)
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func printEntries(w io.Writer, entries []config.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no entries")
		return
	}
	for i, e := range entries {
		state := "stopped"
		if e.IsWatching {
			state = "watching"
		}
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, e.Path, state)
		for _, c := range e.Commands {
			fmt.Fprintf(w, "     $ %s\n", strings.TrimSpace(c))
		}
	}
}
