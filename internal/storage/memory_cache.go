package storage

import (
	"context"
	"sync"
	"time"

	"github.com/trust-scanner/internal/types"
)

// memoryEntry owns one cached analysis and its creation timestamp
type memoryEntry struct {
	analysis  types.TrustAnalysis
	timestamp time.Time
}

// MemoryCache is the default in-process analysis cache: a mutex-guarded map
// with lazy TTL expiry. There is no background sweep; expired entries are
// dropped when looked up or overwritten.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory analysis cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the time source for TTL checks. Tests pin it.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

// Get returns the cached analysis if present and younger than the TTL
func (c *MemoryCache) Get(_ context.Context, address string) (types.TrustAnalysis, bool, error) {
	key := CacheKey(address)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return types.TrustAnalysis{}, false, nil
	}
	if c.now().Sub(entry.timestamp) >= c.ttl {
		// Expired: drop it so the map doesn't accumulate dead entries
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.timestamp.Equal(entry.timestamp) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return types.TrustAnalysis{}, false, nil
	}

	return copyAnalysis(entry.analysis), true, nil
}

// Put stores an analysis with the current timestamp, overwriting any entry
func (c *MemoryCache) Put(_ context.Context, address string, analysis types.TrustAnalysis) error {
	key := CacheKey(address)

	c.mu.Lock()
	c.entries[key] = memoryEntry{analysis: copyAnalysis(analysis), timestamp: c.now()}
	c.mu.Unlock()
	return nil
}

// Evict removes the entry for an address
func (c *MemoryCache) Evict(_ context.Context, address string) error {
	c.mu.Lock()
	delete(c.entries, CacheKey(address))
	c.mu.Unlock()
	return nil
}

// EvictAll removes all entries
func (c *MemoryCache) EvictAll(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Len reports the number of live entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
