package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryCounts(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New("download", start)
	s.Succeed()
	s.Succeed()
	s.Skip()
	s.Fail("2024-01-01", errors.New("status 500"))
	s.Fail("2024-01-03", nil)
	s.Finish(start.Add(90 * time.Second))

	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03"}, s.FailedUnits())
	assert.Equal(t, "unknown error", s.Failures[1].Reason)
	assert.Equal(t, 90*time.Second, s.Duration())
}

func TestDurationBeforeFinishIsZero(t *testing.T) {
	s := New("parse", time.Now())
	assert.Zero(t, s.Duration())
}

func TestRender(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := New("jeopardy", start)
	s.Succeed()
	s.Fail("8400", errors.New("status 404"))
	s.Finish(start.Add(2 * time.Second))

	var buf bytes.Buffer
	s.Render(&buf)
	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "jeopardy summary")
	assert.Contains(t, out, "8400")
	assert.Contains(t, out, "status 404")
	assert.Contains(t, out, "reason")
	assert.Contains(t, out, "2s")
}

func TestRenderWithoutFailuresOmitsFailureTable(t *testing.T) {
	s := New("aggregate", time.Now())
	s.Succeed()
	s.Finish(time.Now())

	var buf bytes.Buffer
	s.Render(&buf)
	assert.NotContains(t, strings.ToLower(buf.String()), "reason")
}
