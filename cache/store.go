package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vecplay/vecplay/anim"
)

// DiskStore persists cache blobs as files under one directory, keyed by
// document identity and raster box.
type DiskStore struct {
	dir string
}

// NewDiskStore returns a store rooted at dir. The directory is created
// lazily on the first save.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Key derives the store key for a document path and request.
func Key(path string, request anim.FrameRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%dx%d", path, request.Box.Width, request.Box.Height)))
	return hex.EncodeToString(sum[:16])
}

// Load returns the blob for a key, or nil when absent or unreadable — the
// cache layer treats both identically.
func (s *DiskStore) Load(key string) []byte {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil
	}
	return data
}

// Save writes a blob atomically via a temp file rename.
func (s *DiskStore) Save(key string, blob []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create cache temp file")
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to write cache blob")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to close cache temp file")
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to move cache blob into place")
	}
	return nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, key+".vpc")
}
