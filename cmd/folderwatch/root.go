package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"folderwatch/internal/appversion"
	"folderwatch/pkg/config"
	"folderwatch/pkg/sampler"
)

// rootOptions holds the flags shared by the session and its subcommands.
type rootOptions struct {
	configPath  string
	strategy    string
	headless    bool
	logFile     string
	journalPath string
	debug       bool
}

// newRootCmd creates the root folderwatch command with all subcommands attached.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "folderwatch",
		Short: "Run shell commands when watched folders change",
		Long: "folderwatch watches a list of directories and launches each entry's\n" +
			"commands when a change is detected. Without a subcommand it opens the\n" +
			"interactive view, or runs headless when stdout is not a terminal.",
		Version:       fmt.Sprintf("folderwatch %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, opts)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultPath, "config file (.json, .yaml, .yml or .toml)")
	pf.StringVar(&opts.journalPath, "journal", "", "SQLite trigger journal (empty disables it)")

	f := cmd.Flags()
	f.StringVar(&opts.strategy, "strategy", sampler.StrategyEvents, "change detection: poll or events")
	f.BoolVar(&opts.headless, "headless", false, "run without the interactive view")
	f.StringVar(&opts.logFile, "log-file", "", "log file (default: stderr headless, user cache dir interactive)")
	f.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newHistoryCmd(opts),
	)

	return cmd
}
