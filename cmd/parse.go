package cmd

import (
	"github.com/spf13/cobra"
)

// newParseCmd creates the 'parse' subcommand.
func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Extract stored crossword pages into puzzle JSON files",
		Long: `Parses every stored crossword page, writes one JSON file per date into
crossword.puzzles_dir, and regenerates the aggregate script. Pages without a
usable grid or clues are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App) error {
			parser, err := a.Parser()
			if err != nil {
				return err
			}
			return runJob(cmd, a, "parse", parser.Run)
		}),
	}
}

// newAggregateCmd creates the 'aggregate' subcommand.
func newAggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Rebuild the aggregate puzzles script from puzzle JSON files",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App) error {
			aggregator, err := a.Aggregator()
			if err != nil {
				return err
			}
			return runJob(cmd, a, "aggregate", aggregator.Run)
		}),
	}
}
