package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"folderwatch/pkg/config"
)

// newRemoveCmd creates the "folderwatch remove" subcommand.
func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove INDEX",
		Short: "Remove an entry by its position in list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}

			store := config.NewStore(opts.configPath)
			entries, err := store.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if n < 1 || n > len(entries) {
				return fmt.Errorf("index %d out of range (have %d entries)", n, len(entries))
			}

			removed := entries[n-1]
			entries = append(entries[:n-1], entries[n:]...)
			if err := store.Save(entries); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", removed.Path)
			return nil
		},
	}
}
