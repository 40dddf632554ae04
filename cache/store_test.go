package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecplay/vecplay/anim"
)

func TestDiskStoreSaveLoad(t *testing.T) {
	store := NewDiskStore(filepath.Join(t.TempDir(), "frames"))
	key := Key("/tmp/sticker.json", cacheRequest(64, 64))

	assert.Nil(t, store.Load(key), "missing key loads as nil")

	blob := []byte("serialized frames")
	require.NoError(t, store.Save(key, blob))
	assert.Equal(t, blob, store.Load(key))

	// Overwrites replace the previous blob.
	require.NoError(t, store.Save(key, []byte("newer")))
	assert.Equal(t, []byte("newer"), store.Load(key))
}

func TestDiskStoreKey(t *testing.T) {
	a := Key("/a/sticker.json", cacheRequest(64, 64))
	assert.Len(t, a, 32)
	assert.Equal(t, a, Key("/a/sticker.json", cacheRequest(64, 64)))

	// Path and box both contribute to the key.
	assert.NotEqual(t, a, Key("/b/sticker.json", cacheRequest(64, 64)))
	assert.NotEqual(t, a, Key("/a/sticker.json", cacheRequest(32, 32)))

	// Color overrides do not: cached rasters are tint-agnostic.
	colored := anim.FrameRequest{Box: anim.Size{Width: 64, Height: 64}, UseColor: true}
	assert.Equal(t, a, Key("/a/sticker.json", colored))
}

func TestDiskStoreSaveFailure(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail.
	base := t.TempDir()
	blocked := filepath.Join(base, "occupied")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))

	store := NewDiskStore(filepath.Join(blocked, "frames"))
	err := store.Save("key", []byte("blob"))
	assert.Error(t, err)
}
