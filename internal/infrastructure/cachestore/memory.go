package cachestore

import (
	"context"

	"duel_portfolio/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

// Memory keeps portfolio entries in process. Entries never expire on their own;
// freshness is decided by the caller's clock. It implements port.PortfolioStore.
type Memory struct {
	items *cache.Cache
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{items: cache.New(cache.NoExpiration, 0)}
}

// Get returns the entry stored under key.
func (m *Memory) Get(_ context.Context, key string) (entity.CacheEntry, bool, error) {
	v, found := m.items.Get(key)
	if !found {
		return entity.CacheEntry{}, false, nil
	}
	return v.(entity.CacheEntry), true, nil
}

// Set stores entry under key, replacing any previous one.
func (m *Memory) Set(_ context.Context, key string, entry entity.CacheEntry) error {
	m.items.Set(key, entry, cache.NoExpiration)
	return nil
}

// Flush removes every entry.
func (m *Memory) Flush(context.Context) error {
	m.items.Flush()
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len(context.Context) int {
	return m.items.ItemCount()
}
