package store

import (
	"context"
	"sync"
	"time"

	"github.com/insurestp/insurestp/engine"
	"github.com/insurestp/insurestp/internal/metrics"
)

// SnapshotCacheConfig holds configuration for snapshot caching.
type SnapshotCacheConfig struct {
	// TTL is the time-to-live for a cached snapshot.
	// Set to 0 for no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultSnapshotCacheConfig returns sensible defaults: no TTL, the cache is
// invalidated explicitly on every configuration mutation.
func DefaultSnapshotCacheConfig() SnapshotCacheConfig {
	return SnapshotCacheConfig{TTL: 0}
}

// SnapshotCache caches one configuration snapshot in front of a Stores
// value and rebuilds it on miss. Thread-safe; evaluations hitting a warm
// cache share the same immutable snapshot.
type SnapshotCache struct {
	stores  Stores
	config  SnapshotCacheConfig
	metrics *metrics.Metrics

	mu       sync.RWMutex
	snapshot *engine.Snapshot
	cachedAt time.Time
	isValid  bool
}

// NewSnapshotCache creates a snapshot cache over the given stores. Metrics
// may be nil.
func NewSnapshotCache(stores Stores, config SnapshotCacheConfig, m *metrics.Metrics) *SnapshotCache {
	return &SnapshotCache{
		stores:  stores,
		config:  config,
		metrics: m,
	}
}

// Snapshot returns the cached snapshot, rebuilding from the stores when the
// cache is cold, expired or invalidated.
func (c *SnapshotCache) Snapshot(ctx context.Context) (*engine.Snapshot, error) {
	c.mu.RLock()
	if c.valid() {
		snap := c.snapshot
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have rebuilt while we waited for the lock.
	if c.valid() {
		return c.snapshot, nil
	}

	snap, err := LoadSnapshot(ctx, c.stores)
	if err != nil {
		return nil, err
	}
	c.snapshot = snap
	c.cachedAt = time.Now()
	c.isValid = true
	c.metrics.RecordSnapshotRebuild()
	return snap, nil
}

// Invalidate clears the cache, forcing a rebuild on next Snapshot. Call it
// after any configuration mutation.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isValid = false
	c.snapshot = nil
}

// IsValid returns true if the cache holds a usable snapshot.
func (c *SnapshotCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid()
}

// valid must be called with at least a read lock held.
func (c *SnapshotCache) valid() bool {
	if !c.isValid {
		return false
	}
	if c.config.TTL > 0 {
		return time.Since(c.cachedAt) <= c.config.TTL
	}
	return true
}
