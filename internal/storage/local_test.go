package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	return s, dir
}

func TestNewLocalStorage(t *testing.T) {
	t.Run("CreatesBaseDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "archive")

		storage, err := NewLocalStorage(path)
		require.NoError(t, err)
		assert.Equal(t, path, storage.GetBasePath())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("DefaultPath", func(t *testing.T) {
		origDir, err := os.Getwd()
		require.NoError(t, err)
		defer os.Chdir(origDir)
		require.NoError(t, os.Chdir(t.TempDir()))

		storage, err := NewLocalStorage("")
		require.NoError(t, err)
		assert.Equal(t, "./storage", storage.GetBasePath())
	})
}

func TestLocalStorage_Upload(t *testing.T) {
	storage, dir := newTestLocalStorage(t)
	ctx := context.Background()

	t.Run("FromReader", func(t *testing.T) {
		content := []byte(`"main" #1 prio=5 tid=0x1 nid=0x2 runnable`)
		require.NoError(t, storage.Upload(ctx, "dumps/id-1/jstack.txt", bytes.NewReader(content)))

		data, err := os.ReadFile(filepath.Join(dir, "dumps", "id-1", "jstack.txt"))
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, storage.Upload(ctx, "a.txt", bytes.NewReader([]byte("first"))))
		require.NoError(t, storage.Upload(ctx, "a.txt", bytes.NewReader([]byte("second"))))

		data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("NoTempFilesLeft", func(t *testing.T) {
		matches, err := filepath.Glob(filepath.Join(dir, ".upload-*"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("TraversalStaysInBase", func(t *testing.T) {
		require.NoError(t, storage.Upload(ctx, "../../escape.txt", bytes.NewReader([]byte("x"))))

		_, err := os.Stat(filepath.Join(dir, "escape.txt"))
		assert.NoError(t, err)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := storage.Upload(canceled, "canceled.txt", bytes.NewReader([]byte("test")))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalStorage_UploadFile(t *testing.T) {
	storage, dir := newTestLocalStorage(t)
	ctx := context.Background()

	t.Run("CopiesFile", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "summary.json")
		require.NoError(t, os.WriteFile(src, []byte(`{"totalThreads":7}`), 0644))

		require.NoError(t, storage.UploadFile(ctx, "analyses/id-1/summary.json", src))

		data, err := os.ReadFile(filepath.Join(dir, "analyses", "id-1", "summary.json"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"totalThreads":7}`, string(data))
	})

	t.Run("MissingSource", func(t *testing.T) {
		err := storage.UploadFile(ctx, "dest.txt", "/nonexistent/path.txt")
		assert.Error(t, err)
	})
}

func TestLocalStorage_Download(t *testing.T) {
	storage, _ := newTestLocalStorage(t)
	ctx := context.Background()

	t.Run("Existing", func(t *testing.T) {
		require.NoError(t, storage.Upload(ctx, "download/test.txt", bytes.NewReader([]byte("content"))))

		reader, err := storage.Download(ctx, "download/test.txt")
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := storage.Download(ctx, "nonexistent.txt")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})
}

func TestLocalStorage_DeleteAndExists(t *testing.T) {
	storage, _ := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Upload(ctx, "delete/test.txt", bytes.NewReader([]byte("x"))))

	exists, err := storage.Exists(ctx, "delete/test.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, storage.Delete(ctx, "delete/test.txt"))

	exists, err = storage.Exists(ctx, "delete/test.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, storage.Delete(ctx, "delete/test.txt"))
}

func TestLocalStorage_GetURL(t *testing.T) {
	storage, dir := newTestLocalStorage(t)

	assert.Equal(t, filepath.Join(dir, "path", "to", "file.txt"), storage.GetURL("path/to/file.txt"))
}
