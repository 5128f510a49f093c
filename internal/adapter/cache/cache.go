// Package cache stores fetched remote resources on disk, one file per key.
// Presence of the file is the sole hit signal; entries are never expired
// automatically. Writes go through a temp file and rename, so an aborted
// run leaves no partial entry behind.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/adapter/fetch"
)

// Cache maps stable keys to byte payloads under a root directory.
type Cache struct {
	root string
	log  *zap.Logger
}

// New creates a cache rooted at dir; the directory is created on first use.
func New(dir string, log *zap.Logger) *Cache {
	return &Cache{root: dir, log: log}
}

// Path returns the on-disk location of a key, whether or not it exists.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.root, key)
}

// Acquire returns the cached payload for key, fetching and persisting it
// first on a miss. The fetch function is not invoked on a hit.
func (c *Cache) Acquire(key string, fn fetch.Func) ([]byte, error) {
	path, err := c.AcquirePath(key, fn)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// AcquirePath is Acquire for consumers that need a file path rather than
// bytes (the NetCDF C library opens datasets by path).
func (c *Cache) AcquirePath(key string, fn fetch.Func) (string, error) {
	path := c.Path(key)
	if _, err := os.Stat(path); err == nil {
		c.log.Info("cache hit", zap.String("key", key))
		return path, nil
	}

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return "", fmt.Errorf("create cache root: %w", err)
	}

	c.log.Info("cache miss, fetching", zap.String("key", key))
	payload, err := fn()
	if err != nil {
		return "", err
	}

	// Atomic publish: write to a uniquely named temp file in the same
	// directory, then rename over the final path.
	tmp := filepath.Join(c.root, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish cache entry %s: %w", key, err)
	}
	c.log.Info("cached", zap.String("key", key), zap.Int("bytes", len(payload)))
	return path, nil
}
