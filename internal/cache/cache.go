// Package cache memoizes expensive, rarely-changing lookups (instance
// metadata, auto-scaling group membership) on disk with a time-to-live.
// Each distinct (producer id, arguments) signature owns one entry file;
// entries are never deleted, only overwritten on the next miss.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const filePrefix = "cwmon"

// Cache is a file-backed TTL memoization store. Entries hold instance
// metadata, so files are written owner-only.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// New creates the cache directory if needed and returns a cache with the
// given TTL.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Signature computes the stable cache key for a producer and its arguments.
// Arguments are NUL-separated before hashing so that signatures of different
// producers or argument lists can never collide.
func Signature(producerID string, args ...string) string {
	h := sha256.New()
	io.WriteString(h, producerID)
	for _, arg := range args {
		h.Write([]byte{0})
		io.WriteString(h, arg)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) entryPath(sig string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s-%s.json", filePrefix, sig))
}

// lookup decodes a fresh entry into out and reports whether it hit.
// A missing, expired, unreadable, or corrupt entry is a miss.
func (c *Cache) lookup(sig string, out any) bool {
	path := c.entryPath(sig)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if c.now().Sub(info.ModTime()) >= c.ttl {
		return false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// store persists a value under the signature, overwriting any stale entry.
func (c *Cache) store(sig string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	path := c.entryPath(sig)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return err
	}
	// WriteFile only applies the mode on create; clamp pre-existing entries.
	return os.Chmod(path, 0o600)
}

// Fetch returns the cached value for (producerID, args) if one is still
// fresh; otherwise it invokes produce, persists the result, and returns it.
// A failed write does not fail the run — the value was computed either way
// and the next invocation simply misses again.
func Fetch[T any](c *Cache, producerID string, args []string, produce func() (T, error)) (T, error) {
	sig := Signature(producerID, args...)

	var cached T
	if c.lookup(sig, &cached) {
		return cached, nil
	}

	value, err := produce()
	if err != nil {
		return value, err
	}
	_ = c.store(sig, value)
	return value, nil
}
