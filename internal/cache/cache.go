// Package cache is the TTL cache capability injected into boundary services.
// The pure computation packages never reference it.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL key/value store.
type Cache struct {
	inner *gocache.Cache
}

// New creates a cache with the given default TTL. Expired entries are swept
// at twice the TTL.
func New(defaultTTL time.Duration) *Cache {
	return &Cache{inner: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Get returns the cached value for key, or found=false on a miss.
func (c *Cache) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

// Set stores value under key for ttl. A zero ttl uses the default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.inner.Set(key, value, ttl)
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.inner.Delete(key)
}

// GetOrLoad returns the cached value for key, or loads, stores and returns a
// fresh one.
func (c *Cache) GetOrLoad(key string, ttl time.Duration, loader func() (any, error)) (any, error) {
	if val, found := c.inner.Get(key); found {
		return val, nil
	}
	val, err := loader()
	if err != nil {
		return nil, err
	}
	c.inner.Set(key, val, ttl)
	return val, nil
}
