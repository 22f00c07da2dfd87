package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryCache is an in-memory thread-safe cache implementation.
type InMemoryCache struct {
	entries sync.Map // map[string]entry
	now     func() time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: sync.Map{},
		now:     time.Now,
	}
}

// Get retrieves a value from the cache.
func (c *InMemoryCache) Get(key string) ([]byte, bool, error) {
	cached, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}

	e, ok := cached.(entry)
	if !ok || !c.now().Before(e.expiresAt) {
		c.entries.Delete(key)
		return nil, false, nil
	}

	return e.value, true, nil
}

// Put stores a value in the cache.
func (c *InMemoryCache) Put(key string, value []byte, ttl time.Duration) error {
	c.entries.Store(key, entry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	})

	return nil
}

// Prune removes expired entries.
func (c *InMemoryCache) Prune() (int64, error) {
	var removed int64
	now := c.now()

	c.entries.Range(func(key, value any) bool {
		if e, ok := value.(entry); !ok || !now.Before(e.expiresAt) {
			c.entries.Delete(key)
			removed++
		}

		return true
	})

	return removed, nil
}

// Clear removes every entry.
func (c *InMemoryCache) Clear() error {
	c.entries.Clear()

	return nil
}
