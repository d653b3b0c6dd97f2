// Package cache provides the bounded TTL store for assembled analysis results,
// keyed by uppercased ticker.
package cache

import (
	"strings"
	"sync"
	"time"

	"stock-signal-advisor/internal/types"
)

type entry struct {
	result   *types.AnalyzeResponse
	expires  time.Time
	accessed time.Time
}

// ResultCache is a process-wide TTL cache with LRU eviction once full.
// Entries are immutable after store; Get hands out deep copies with the
// cached flag set, so retrieval never mutates the stored value.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// New creates a cache and starts its background cleanup loop.
func New(ttl time.Duration, maxEntries int) *ResultCache {
	c := &ResultCache{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns a copy of the cached result with Metadata.Cached set true.
func (c *ResultCache) Get(ticker string) (*types.AnalyzeResponse, bool) {
	key := normalize(ticker)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	e.accessed = time.Now()

	out := e.result.Clone()
	out.Metadata.Cached = true
	return out, true
}

// Set stores a result under the normalized ticker, evicting the least
// recently used entry when the cache is full.
func (c *ResultCache) Set(ticker string, result *types.AnalyzeResponse) {
	key := normalize(ticker)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}

	now := time.Now()
	c.entries[key] = &entry{
		result:   result.Clone(),
		expires:  now.Add(c.ttl),
		accessed: now,
	}
}

// Len returns the number of live entries (expired ones included until cleanup).
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stop terminates the cleanup goroutine.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// evictLRU removes the least recently accessed entry. Caller holds the lock.
func (c *ResultCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.accessed.Before(oldest) {
			oldestKey = key
			oldest = e.accessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *ResultCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, key)
		}
	}
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
