// Package cachemanager provides a typed, TTL-bounded in-memory cache.
// It keeps repeated search queries against the same deliverable from
// rescanning the logs.
package cachemanager

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultExpiration is the TTL applied when Set is given DefaultExpiration.
	DefaultExpiration = 10 * time.Minute
	// DefaultCleanupInterval is how often expired entries are purged.
	DefaultCleanupInterval = 20 * time.Minute
)

// CacheManager is a typed cache.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetMultiple(ctx context.Context, keys []K) (map[K]V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// InMemoryCacheManager implements CacheManager on top of go-cache.
type InMemoryCacheManager[K comparable, V any] struct {
	name  string
	cache *gocache.Cache
}

var _ CacheManager[string, string] = (*InMemoryCacheManager[string, string])(nil)

// NewInMemoryCacheManager creates a cache. name only labels the cache in errors.
func NewInMemoryCacheManager[K comparable, V any](name string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		name:  name,
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Name returns the cache label.
func (c *InMemoryCacheManager[K, V]) Name() string { return c.name }

func cacheKey[K comparable](key K) string {
	return fmt.Sprintf("%v", key)
}

// Get returns the cached value. A stored value of the wrong type counts as a miss.
func (c *InMemoryCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	raw, ok := c.cache.Get(cacheKey(key))
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// GetMultiple returns every key that is cached. The bool is false if none was.
func (c *InMemoryCacheManager[K, V]) GetMultiple(ctx context.Context, keys []K) (map[K]V, bool) {
	var out map[K]V
	for _, k := range keys {
		v, ok := c.Get(ctx, k)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[K]V, len(keys))
		}
		out[k] = v
	}
	return out, out != nil
}

// GetWithRefresh returns the cached value and extends its TTL.
func (c *InMemoryCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	v, ok := c.Get(ctx, key)
	if ok {
		c.cache.Set(cacheKey(key), v, ttl)
	}
	return v, ok
}

// Set stores value under key for ttl.
func (c *InMemoryCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(cacheKey(key), value, ttl)
}

// Delete removes keys. Missing keys are ignored.
func (c *InMemoryCacheManager[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, k := range keys {
		c.cache.Delete(cacheKey(k))
	}
	return nil
}

// Flush removes everything.
func (c *InMemoryCacheManager[K, V]) Flush(_ context.Context) error {
	c.cache.Flush()
	return nil
}
