// Package cache keeps recently generated reports in process, keyed by a
// digest of the inputs they were generated from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/ormasoftchile/meshcheck/pkg/report"
)

// DefaultTTL bounds how long a cached report is served.
const DefaultTTL = 10 * time.Minute

// ErrRejected is returned by Put when the cache did not admit a report,
// for example because its encoding exceeds the cache size.
var ErrRejected = errors.New("cache: report not admitted")

// Cache is a size-bounded report cache.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// New creates a cache holding at most maxMB megabytes of encoded reports.
func New(maxMB int, ttl time.Duration) (*Cache, error) {
	if maxMB < 1 {
		return nil, fmt.Errorf("cache size must be at least 1 MB, got %d", maxMB)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxCost := int64(maxMB) << 20
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost / 1024 * 10, // ~10x expected items of ~1KB
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Get returns the report cached under key.
func (c *Cache) Get(key string) (*report.Report, bool) {
	data, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		c.c.Del(key)
		return nil, false
	}
	return &r, true
}

// Put caches r under key. On success the write is visible to Get once Put
// returns; otherwise Put returns ErrRejected.
func (c *Cache) Put(key string, r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if !c.c.SetWithTTL(key, data, int64(len(data)), c.ttl) {
		return ErrRejected
	}
	c.c.Wait()
	// The admission policy runs asynchronously and may still drop the item.
	if _, ok := c.c.Get(key); !ok {
		return ErrRejected
	}
	return nil
}

// Delete drops key.
func (c *Cache) Delete(key string) { c.c.Del(key) }

// Close releases the cache.
func (c *Cache) Close() { c.c.Close() }

// Digest returns a stable hex digest of the JSON encoding of parts.
func Digest(parts ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return "", fmt.Errorf("digest: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
