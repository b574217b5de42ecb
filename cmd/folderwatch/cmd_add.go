package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"folderwatch/pkg/config"
)

// newAddCmd creates the "folderwatch add" subcommand.
func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		commands []string
		watching bool
	)

	cmd := &cobra.Command{
		Use:   "add PATH",
		Short: "Append an entry",
		Long: "Appends a directory to the config. Without -c the entry gets a\n" +
			"desktop notification command. With --watch it starts on the next run.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			if info, err := os.Stat(path); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			} else if !info.IsDir() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not a directory\n", path)
			}

			store := config.NewStore(opts.configPath)
			entries, err := store.Load()
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load config: %w", err)
			}
			entries = append(entries, config.Entry{Path: path, Commands: commands, IsWatching: watching})
			if err := store.Save(config.Normalize(entries)); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %d. %s\n", len(entries), path)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "command to run on change (repeatable)")
	cmd.Flags().BoolVar(&watching, "watch", false, "start watching the entry on the next run")
	return cmd
}
