// Package report tallies the per-unit outcomes of a job run and renders them
// as a table at the end.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/puzzle-archive/internal/metrics"
)

// Failure names a unit (a date or a game id) and why it failed.
type Failure struct {
	Unit   string
	Reason string
}

// Summary counts outcomes for one job. It is not safe for concurrent use.
type Summary struct {
	Job       string
	Succeeded int
	Skipped   int
	Failures  []Failure
	Started   time.Time
	Finished  time.Time
}

// New starts a summary for job at the given instant.
func New(job string, started time.Time) *Summary {
	return &Summary{Job: job, Started: started}
}

// Succeed records a unit that produced output.
func (s *Summary) Succeed() {
	s.Succeeded++
	metrics.ObserveRecord(s.Job, metrics.ResultSucceeded)
}

// Skip records a unit that needed no work or produced nothing to keep.
func (s *Summary) Skip() {
	s.Skipped++
	metrics.ObserveRecord(s.Job, metrics.ResultSkipped)
}

// Fail records a unit that could not be processed.
func (s *Summary) Fail(unit string, err error) {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	s.Failures = append(s.Failures, Failure{Unit: unit, Reason: reason})
	metrics.ObserveRecord(s.Job, metrics.ResultFailed)
}

// Finish stamps the end time and records the run duration.
func (s *Summary) Finish(at time.Time) {
	s.Finished = at
	metrics.ObserveJobDuration(s.Job, s.Duration())
}

// Duration is the elapsed time between start and finish.
func (s *Summary) Duration() time.Duration {
	if s.Finished.IsZero() || s.Finished.Before(s.Started) {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// FailedUnits lists the failed units in the order they failed.
func (s *Summary) FailedUnits() []string {
	units := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		units = append(units, f.Unit)
	}
	return units
}

// Render writes the totals table, followed by a failure table when any unit
// failed.
func (s *Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s summary", s.Job))
	t.AppendHeader(table.Row{"Succeeded", "Skipped", "Failed", "Duration"})
	t.AppendRow(table.Row{s.Succeeded, s.Skipped, len(s.Failures), s.Duration().Round(time.Millisecond)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(s.Failures) == 0 {
		return
	}
	ft := table.NewWriter()
	ft.SetOutputMirror(w)
	ft.AppendHeader(table.Row{"Unit", "Reason"})
	for _, f := range s.Failures {
		ft.AppendRow(table.Row{f.Unit, f.Reason})
	}
	ft.SetStyle(table.StyleRounded)
	ft.Render()
}
