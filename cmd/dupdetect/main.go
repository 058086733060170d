package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// app carries state shared by subcommands.
type app struct {
	verbose bool
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}

	rootCmd := &cobra.Command{
		Use:   "dupdetect",
		Short: "Find approximate duplicate records in a table",
		Long: `dupdetect groups the rows of a table into clusters of approximate
duplicates. Every row is reduced to a fingerprint of its field values, and
rows whose fingerprints are similar enough share a cluster.

The output table carries every input column plus the cluster id (the
position of the cluster's earliest row) and the row's similarity to that
row.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelInfo
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newConfigCmd(a))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
