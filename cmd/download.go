package cmd

import (
	"github.com/spf13/cobra"
)

// newDownloadCmd creates the 'download' subcommand.
func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download crossword pages for the configured date window",
		Long: `Fetches one crossword page per day, from crossword.days_back days ago up to
yesterday, into the raw page store. Dates already stored are skipped, so the
command can be rerun to fill gaps.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App) error {
			return runJob(cmd, a, "download", a.Downloader().Run)
		}),
	}
}
