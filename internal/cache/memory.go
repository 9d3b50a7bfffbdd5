package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory caching with a soft entry bound
type MemoryCache struct {
	cache      *gocache.Cache
	maxEntries int
}

// NewMemoryCache creates a new memory cache. maxEntries of 0 means
// unbounded.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		cache:      gocache.New(defaultTTL, cleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value in the cache with the given TTL. When the entry
// bound is reached new keys are dropped rather than evicting old ones;
// expired entries free the space on the next cleanup cycle.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if c.maxEntries > 0 && c.cache.ItemCount() >= c.maxEntries {
		if _, exists := c.cache.Get(key); !exists {
			return nil
		}
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
