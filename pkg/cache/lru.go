package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is a bounded in-memory cache. Entries expire after the TTL given
// at construction; the per-call ttl of Set is ignored because the
// underlying expirable LRU has a single lifetime for all entries.
type LRUCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache returns a cache holding at most size entries for ttl each.
// A ttl <= 0 selects [DefaultTTL].
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRUCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := c.lru.Get(key)
	return data, ok, nil
}

func (c *LRUCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.lru.Add(key, data)
	return nil
}

func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (c *LRUCache) Len() int { return c.lru.Len() }

func (c *LRUCache) Close() error {
	c.lru.Purge()
	return nil
}

var _ Cache = (*LRUCache)(nil)
