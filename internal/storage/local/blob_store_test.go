// Package local_test tests the local filesystem page store.
package local_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		_, err := local.New(local.Config{BaseDir: tempDir})
		assert.Error(t, err)
		// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
		require.NoError(t, os.Chmod(tempDir, 0o700))
	})
}

func TestPutGetExists(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		key := "crossword/2024-01-02.html"
		data := []byte("<html>grid</html>")
		uri, err := store.Put(ctx, key, data)
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.Join(tempDir, "crossword", "2024-01-02.html"), uri)

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		ok, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("MissingKey", func(t *testing.T) {
		ok, err := store.Exists(ctx, "crossword/1999-01-01.html")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.Get(ctx, "crossword/1999-01-01.html")
		assert.True(t, errors.Is(err, archive.ErrPageNotFound))
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := store.Put(ctx, "", []byte("data"))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.Put(ctx, "../escape.html", []byte("data"))
		assert.Error(t, err)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Put(canceled, "jeopardy/1.html", []byte("data"))
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{
		"crossword/2024-01-03.html",
		"jeopardy/9382.html",
		"crossword/2024-01-01.html",
	} {
		_, err := store.Put(ctx, key, []byte("x"))
		require.NoError(t, err)
	}

	keys, err := store.List(ctx, "crossword/")
	require.NoError(t, err)
	assert.Equal(t, []string{"crossword/2024-01-01.html", "crossword/2024-01-03.html"}, keys)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
