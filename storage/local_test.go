package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndRemove(t *testing.T) {
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	filename, path, err := local.Save(strings.NewReader("mri-bytes"), "scan.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".jpg"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mri-bytes", string(data))

	require.NoError(t, local.Remove(filename))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is not an error.
	assert.NoError(t, local.Remove(filename))
}

func TestSaveAssignsUniqueNames(t *testing.T) {
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	first, _, err := local.Save(strings.NewReader("a"), "scan.png")
	require.NoError(t, err)
	second, _, err := local.Save(strings.NewReader("b"), "scan.png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestUniqueNameStripsDirectories(t *testing.T) {
	name := uniqueName("../../etc/passwd.jpg")
	assert.NotContains(t, name, "/")
	assert.True(t, strings.HasSuffix(name, ".jpg"))
}

func TestStoreWithoutMirror(t *testing.T) {
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	store := NewStore(local, nil)
	blob, err := store.Save(context.Background(), strings.NewReader("x"), "scan.jpeg")
	require.NoError(t, err)
	assert.Empty(t, blob.MirrorURL)
	assert.NotEmpty(t, blob.Path)
}
