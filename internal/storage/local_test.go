package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(dir, "media/")
	ctx := context.Background()

	url, err := store.Put(ctx, "20240101-abc.png", strings.NewReader("payload"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/20240101-abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "20240101-abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")

	require.NoError(t, store.Delete(ctx, "20240101-abc.png"))
	_, err = os.Stat(filepath.Join(dir, "20240101-abc.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "20240101-abc.png"), "deleting twice is fine")
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads")
	ctx := context.Background()

	for _, key := range []string{"", "..", "../escape.png", "nested/file.png", `a\b.png`} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), "image/png")
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalStoreHonoursContext(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "a.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}
