package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aisavvy",
	Short: "Conversational assistant for your SQL database",
	Long: `aisavvy turns a natural-language conversation into a validated SQL query,
executes it against the configured database, and returns an enriched result
with a summary and a visualization hint. Completed answers are memoized and
every execution attempt is recorded in an audit log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx := context.Background()
	return rootCmd.ExecuteContext(ctx)
}
