package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveListDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "images")
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "RA2_b.jpg", []byte("two")))
	require.NoError(t, s.Save(ctx, "RA1_a.jpg", []byte("one!")))

	data, err := os.ReadFile(filepath.Join(dir, "RA1_a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "one!", string(data))

	objs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "RA1_a.jpg", objs[0].Name)
	assert.Equal(t, int64(4), objs[0].Size)
	assert.Equal(t, "RA2_b.jpg", objs[1].Name)

	require.NoError(t, s.Delete(ctx, "RA1_a.jpg"))
	assert.ErrorIs(t, s.Delete(ctx, "RA1_a.jpg"), ErrNotFound)

	objs, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "x.jpg", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.jpg", entries[0].Name())
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"../escape.jpg", "a/b.jpg", `a\b.jpg`, "..", ""} {
		assert.Error(t, s.Save(context.Background(), name, []byte("x")), name)
		assert.Error(t, s.Delete(context.Background(), name), name)
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, "x.jpg", []byte("x")), context.Canceled)
}
