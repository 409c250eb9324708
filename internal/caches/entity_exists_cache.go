package caches

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// EntityExistsCache remembers which entities are known to exist downstream.
// Only positive answers are stored: entity creation races the scrape-trigger
// existence check, so a cached "absent" could mask a row written moments
// later. Population is bounded by LRU eviction.
type EntityExistsCache struct {
	entries *lru.Cache[int64, struct{}]
}

// NewEntityExistsCache builds a cache holding at most size entries.
func NewEntityExistsCache(size int) (*EntityExistsCache, error) {
	entries, err := lru.New[int64, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &EntityExistsCache{entries: entries}, nil
}

// Exists reports whether the entity is known to exist. False means unknown,
// never "known absent".
func (c *EntityExistsCache) Exists(entityID int64) bool {
	_, ok := c.entries.Get(entityID)
	return ok
}

// MarkExists records a confirmed downstream row.
func (c *EntityExistsCache) MarkExists(entityID int64) {
	c.entries.Add(entityID, struct{}{})
}

// Len reports the current population, for diagnostics.
func (c *EntityExistsCache) Len() int {
	return c.entries.Len()
}
