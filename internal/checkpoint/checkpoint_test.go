package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	state, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Completed())
	assert.Empty(t, state.Games)
	assert.False(t, state.IsCompleted(8383))
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	state := New()
	state.MarkCompleted(9, &archive.JeopardyGame{GameID: "9", AirDate: "2020-01-09"})
	state.MarkCompleted(3, nil)
	state.MarkCompleted(5, &archive.JeopardyGame{GameID: "5", AirDate: "2020-01-05"})
	state.MarkCompleted(5, &archive.JeopardyGame{GameID: "dup"})
	require.NoError(t, state.Save(path))

	// #nosec G304 -- test reads a file it just wrote.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"completed_ids":[3,5,9]`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Completed())
	for _, id := range []int{3, 5, 9} {
		assert.True(t, loaded.IsCompleted(id), "id %d", id)
	}
	require.Len(t, loaded.Games, 2)
	assert.Equal(t, "9", loaded.Games[0].GameID)
	assert.Equal(t, "5", loaded.Games[1].GameID)
}

func TestLoadToleratesNullCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"completed_ids":null,"games":null}`), 0o600))

	state, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, state.CompletedIDs)
	assert.NotNil(t, state.Games)
	state.MarkCompleted(1, nil)
	assert.True(t, state.IsCompleted(1))
}
