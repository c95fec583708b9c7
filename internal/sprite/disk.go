package sprite

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskCache replays previously generated sprites from local disk, keyed by
// the normalized sprite key. Entries are immutable once written; there is
// no expiry or invalidation path.
type DiskCache struct {
	dir string
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create sprite cache directory: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Get returns the cached image for a key, or false when absent.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores an image under a key. The write is atomic so a concurrent
// reader never observes a torn file; concurrent writers of the same key are
// equivalent, so last write wins.
func (c *DiskCache) Put(key string, image []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp sprite file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(image); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write sprite: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close sprite file: %w", err)
	}

	if err := os.Rename(tmpName, c.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish sprite: %w", err)
	}
	return nil
}

// Keys lists the cached sprite keys.
func (c *DiskCache) Keys() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sprite cache directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".png" {
			continue
		}
		keys = append(keys, entry.Name()[:len(entry.Name())-len(".png")])
	}
	return keys, nil
}

// Clear removes every cached sprite and returns how many were removed.
func (c *DiskCache) Clear() (int, error) {
	keys, err := c.Keys()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := os.Remove(c.path(key)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".png")
}
