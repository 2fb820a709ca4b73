package cache

import (
	"sync"
	"time"
)

// Ensure Memory implements Cache.
var _ Cache = (*Memory)(nil)

type entry struct {
	expiresAt time.Time
	value     any
}

// Memory is an in-process TTL cache. Expired entries are dropped lazily on
// read; there is no background sweeper.
type Memory struct {
	entries map[string]entry
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.Invalidate(key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value with the given TTL. A non-positive TTL stores nothing.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
}

// Invalidate removes a single key.
func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// InvalidateAll empties the cache. Callers must invoke this whenever the
// underlying catalog changes.
func (m *Memory) InvalidateAll() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// Len returns the number of stored entries, counting expired ones not yet
// dropped. Used by tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
