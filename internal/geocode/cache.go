// Package geocode resolves property addresses to coordinates using
// Nominatim, with a durable JSON cache and a fallback chain that always
// produces a usable coordinate.
package geocode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/model"
)

// cacheEntry is one persisted resolution keyed by normalized address.
type cacheEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Cache is a durable address-to-coordinate cache backed by a JSON file.
// Entries survive process restarts; a corrupt or missing file starts the
// cache empty rather than failing.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]cacheEntry
	dirty   bool
}

// OpenCache loads the cache file at path, creating parent directories as
// needed. A missing file yields an empty cache; an unreadable one is
// discarded with a warning.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]cacheEntry)}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "geocode: create cache dir %s", dir)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, eris.Wrapf(err, "geocode: read cache %s", path)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		zap.L().Warn("geocode cache corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		c.entries = make(map[string]cacheEntry)
	}
	return c, nil
}

// Get returns the cached coordinate for the normalized key.
func (c *Cache) Get(key string) (model.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return model.Coordinate{}, false
	}
	return model.Coordinate{Lat: e.Lat, Lon: e.Lon}, true
}

// Put records a resolution. The entry is visible immediately and persisted
// on the next Flush.
func (c *Cache) Put(key string, coord model.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{Lat: coord.Lat, Lon: coord.Lon}
	c.dirty = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush writes the cache to disk if it changed since the last flush.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geocode: marshal cache")
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geocode: write cache %s", c.path)
	}
	c.dirty = false
	return nil
}

// Close flushes and releases the cache.
func (c *Cache) Close() error {
	return c.Flush()
}
