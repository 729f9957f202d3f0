package cmd

import (
	"github.com/spf13/cobra"
)

// newJeopardyCmd creates the 'jeopardy' subcommand.
func newJeopardyCmd() *cobra.Command {
	var testMode bool

	cmd := &cobra.Command{
		Use:   "jeopardy",
		Short: "Scrape trivia games by id into a single JSON file",
		Long: `Scrapes every game id in jeopardy.start_id..jeopardy.end_id, resuming from
the checkpoint file, and writes all games sorted by air date to
jeopardy.output_path. With --test only jeopardy.test_ids are scraped and a
sample of each game is logged; no files are written.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App) error {
			scraper := a.TriviaScraper()
			if testMode {
				return runJob(cmd, a, "jeopardy --test", scraper.RunTest)
			}
			return runJob(cmd, a, "jeopardy", scraper.Run)
		}),
	}
	cmd.Flags().BoolVar(&testMode, "test", false, "scrape only the configured test ids without writing files")
	return cmd
}
