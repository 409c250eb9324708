// Package caches holds the in-process existence caches shared across
// concurrent batches. Both caches are advisory: a miss falls through to the
// authoritative downstream check.
package caches

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// OwnerActivityCache remembers, per owner, which entity ids already have an
// activity record downstream. Entries expire a fixed TTL after the last
// write; an expired owner is re-queried, not refreshed in place. Empty sets
// are cached too: a "no activity yet" answer is business-valid and caching it
// avoids refetch storms when many items for a new owner arrive back to back.
type OwnerActivityCache struct {
	entries *expirable.LRU[int64, map[int64]struct{}]
}

// NewOwnerActivityCache builds a cache bounded by size with the given TTL.
func NewOwnerActivityCache(size int, ttl time.Duration) *OwnerActivityCache {
	return &OwnerActivityCache{
		entries: expirable.NewLRU[int64, map[int64]struct{}](size, nil, ttl),
	}
}

// Get returns the cached entity-id set for an owner. The second return is
// false on a miss or after TTL expiry.
func (c *OwnerActivityCache) Get(ownerID int64) (map[int64]struct{}, bool) {
	return c.entries.Get(ownerID)
}

// Put stores the authoritative entity-id set for an owner, resetting its TTL.
func (c *OwnerActivityCache) Put(ownerID int64, entityIDs []int64) {
	set := make(map[int64]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		set[id] = struct{}{}
	}
	c.entries.Add(ownerID, set)
}

// Len reports the current population, for diagnostics.
func (c *OwnerActivityCache) Len() int {
	return c.entries.Len()
}
