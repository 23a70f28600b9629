package store

import (
	"context"
	"sync"

	"finmodeling/pkg/core/calc"
)

// MemoryCache keeps classifications for the life of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Load(_ context.Context, key string) ([]calc.RowType, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]calc.RowType(nil), e.Categories...), true, nil
}

func (c *MemoryCache) Save(_ context.Context, key string, categories []calc.RowType) error {
	e := NewEntry(key, categories)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

// Entry returns the stored entry for key.
func (c *MemoryCache) Entry(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
