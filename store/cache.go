// Package store keeps per-conversation values, such as form sessions and chat histories,
// behind a routing key carried by the context.
package store

import (
	"context"
	"sync"
)

// Cache is the backing map shared by stores. Keys arrive already namespaced.
type Cache[S any] interface {
	Get(ctx context.Context, key string) (S, bool, error)
	Set(ctx context.Context, key string, val S) error
	Del(ctx context.Context, key string) error
}

// MemoryCache lives as long as the process.
type MemoryCache[S any] struct {
	mu      sync.RWMutex
	entries map[string]S
}

var _ Cache[int] = (*MemoryCache[int])(nil)

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{entries: make(map[string]S)}
}

func (c *MemoryCache[S]) Get(_ context.Context, key string) (S, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *MemoryCache[S]) Set(_ context.Context, key string, val S) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = val
	return nil
}

func (c *MemoryCache[S]) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len counts entries across every namespace.
func (c *MemoryCache[S]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
