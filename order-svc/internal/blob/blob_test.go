package blob

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_UploadReplacesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir(), "http://localhost:8080/")

	handle, err := store.Upload(ctx, "restaurants/r1/profile", strings.NewReader("first"))
	require.NoError(t, err)
	assert.Equal(t, "restaurants/r1/profile", handle)
	assert.Equal(t, "http://localhost:8080/uploads/restaurants/r1/profile", store.URL(handle))

	_, err = store.Upload(ctx, "restaurants/r1/profile", strings.NewReader("second"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(store.Root, "restaurants", "r1", "profile"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	require.NoError(t, store.Delete(ctx, handle))
	_, err = os.Stat(filepath.Join(store.Root, "restaurants", "r1", "profile"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, handle))
}

func TestFileStore_RejectsTraversalAndOversize(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir(), "")

	tests := []struct {
		name string
		path string
	}{
		{name: "parent directory", path: "../outside"},
		{name: "nested parent", path: "restaurants/../../etc/passwd"},
		{name: "empty", path: ""},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := store.Upload(ctx, testCase.path, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}

	_, err := store.Upload(ctx, "restaurants/r1/profile", bytes.NewReader(make([]byte, MaxImageSize+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}
