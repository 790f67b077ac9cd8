package eligibility

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// CacheSchemaVersion is the current version of the cache schema
// Increment this when the cached data structure changes to auto-invalidate old entries
const CacheSchemaVersion = "1.0"

// cachedTaskEntry wraps a task with version metadata for cache invalidation
type cachedTaskEntry struct {
	Version  string                 `json:"version"`
	Task     *domain.EngagementTask `json:"task"`
	CachedAt time.Time              `json:"cached_at"`
}

// taskCache provides an in-memory LRU cache for task lookups with
// time-based expiration. Completion counts can be slightly stale here;
// the reward issuer re-reads the task under lock before crediting.
type taskCache struct {
	lru *expirable.LRU[uuid.UUID, *cachedTaskEntry]
}

// newTaskCache creates a new task cache with the specified size and TTL
func newTaskCache(size int, ttl time.Duration) *taskCache {
	return &taskCache{
		lru: expirable.NewLRU[uuid.UUID, *cachedTaskEntry](size, nil, ttl),
	}
}

// Get retrieves a task from the cache.
// Returns (nil, false) if not in cache, expired, or version mismatch.
func (c *taskCache) Get(taskID uuid.UUID) (*domain.EngagementTask, bool) {
	entry, found := c.lru.Get(taskID)
	if !found {
		return nil, false
	}

	if entry.Version != CacheSchemaVersion {
		c.lru.Remove(taskID)
		return nil, false
	}

	return entry.Task, true
}

// Set stores a task in the cache with current schema version
func (c *taskCache) Set(taskID uuid.UUID, task *domain.EngagementTask) {
	c.lru.Add(taskID, &cachedTaskEntry{
		Version:  CacheSchemaVersion,
		Task:     task,
		CachedAt: time.Now(),
	})
}

// Invalidate removes a task from the cache
func (c *taskCache) Invalidate(taskID uuid.UUID) {
	c.lru.Remove(taskID)
}

// Clear removes all entries from the cache
func (c *taskCache) Clear() {
	c.lru.Purge()
}
