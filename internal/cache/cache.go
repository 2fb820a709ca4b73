// Package cache provides the lookup cache handle used by the tier resolver.
package cache

import "time"

// Cache is the dependency-injected handle the resolver caches through.
// Implementations must be safe for concurrent readers; writes are idempotent,
// so a racing double-compute is acceptable and never corrupts entries.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Invalidate(key string)
	InvalidateAll()
}
