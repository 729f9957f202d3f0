// Package job implements the batch jobs behind each subcommand: downloading
// crossword pages, parsing them into puzzle files, rebuilding the aggregate
// script, and scraping trivia games with a resumable checkpoint.
//
// Every job processes its units one at a time. A failing unit is logged and
// recorded in the run summary; only context cancellation and output write
// failures stop a job early.
package job
