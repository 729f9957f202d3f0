package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/hash/sha256"
	"github.com/JakeFAU/puzzle-archive/internal/sink"
	"github.com/JakeFAU/puzzle-archive/internal/storage/memory"
)

func newPuzzleSink(t *testing.T) (*sink.PuzzleSink, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "puzzles")
	s, err := sink.NewPuzzleSink(dir, sha256.New(), nil)
	require.NoError(t, err)
	return s, dir
}

func TestParserWritesPuzzlesAndAggregate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPageStore()
	for key, page := range map[string]string{
		CrosswordKey("2024-01-02"): crosswordPage,
		CrosswordKey("2024-01-03"): "<html><body>No puzzle today</body></html>",
		CrosswordKey("2024-01-01"): crosswordPage,
		GameKey(9382):              gamePage(1, "2020-01-01", "ignored"),
	} {
		_, err := store.Put(ctx, key, []byte(page))
		require.NoError(t, err)
	}
	puzzles, dir := newPuzzleSink(t)
	aggregate := filepath.Join(t.TempDir(), "puzzles.js")

	summary, err := NewParser(store, puzzles, aggregate, fixedNow, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "2024-01-03", summary.Failures[0].Unit)
	assert.Contains(t, summary.Failures[0].Reason, archive.ErrNotExtractable.Error())

	for _, date := range []string{"2024-01-01", "2024-01-02"} {
		_, err := os.Stat(filepath.Join(dir, date+".json"))
		require.NoError(t, err, date)
	}
	_, err = os.Stat(filepath.Join(dir, "2024-01-03.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// #nosec G304 -- test reads a file the job just wrote.
	script, err := os.ReadFile(aggregate)
	require.NoError(t, err)
	text := string(script)
	assert.True(t, strings.HasPrefix(text, sink.AggregateHeader+"\nconst ALL_PUZZLES = {"))
	assert.Contains(t, text, `"2024-01-01":{"date":"2024-01-01","title":"Sample Puzzle"`)
	assert.Contains(t, text, `"2024-01-02":`)

	again, err := NewParser(store, puzzles, aggregate, fixedNow, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Succeeded)
	assert.Equal(t, 2, again.Skipped, "unchanged puzzles are not rewritten")
}

func TestAggregatorRebuildsFromPuzzleFiles(t *testing.T) {
	ctx := context.Background()
	puzzles, _ := newPuzzleSink(t)
	for _, date := range []string{"2024-02-01", "2024-02-02", "2024-02-03"} {
		_, err := puzzles.WritePuzzle(ctx, archive.CrosswordPuzzle{
			Date:        date,
			Grid:        [][]string{{"A"}},
			CellNumbers: [][]int{{1}},
			Clues:       archive.ClueLists{Across: []archive.Clue{}, Down: []archive.Clue{}},
		})
		require.NoError(t, err)
	}
	aggregate := filepath.Join(t.TempDir(), "web", "puzzles.js")

	summary, err := NewAggregator(puzzles, aggregate, fixedNow, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)

	// #nosec G304 -- test reads a file the job just wrote.
	script, err := os.ReadFile(aggregate)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(script), `"date":`))
}
