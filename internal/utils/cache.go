package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem struct {
	data      any
	expiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire after a TTL.
type Cache struct {
	lru *lru.Cache[string, cacheItem]
	now func() time.Time
}

func NewCache(size int) (*Cache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, now: time.Now}, nil
}

func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.lru.Add(key, cacheItem{data: data, expiresAt: c.now().Add(ttl)})
}

// Get returns nil when the key is missing or expired.
func (c *Cache) Get(key string) any {
	item, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	if c.now().After(item.expiresAt) {
		c.lru.Remove(key)
		return nil
	}
	return item.data
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}
