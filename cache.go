package oekoboiler

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines an interface for caching API responses.
// Implementations must be safe for concurrent access.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found and not expired, or nil and false otherwise.
	Get(key string) (any, bool)

	// Set stores a value in the cache with the given TTL.
	// If TTL is 0 or negative, the entry never expires.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()
}

// MemoryCache is an in-memory Cache backed by go-cache.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache. Expired entries are purged
// every cleanupInterval; a non-positive interval disables the janitor.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value in the cache with the given TTL.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, value, ttl)
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.store.Delete(key)
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *MemoryCache) DeletePrefix(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() {
	c.store.Flush()
}

// Size returns the number of entries in the cache (including expired ones
// not yet purged).
func (c *MemoryCache) Size() int {
	return c.store.ItemCount()
}

// CacheConfig configures the caching behavior for a Client.
type CacheConfig struct {
	// Cache is the cache implementation to use.
	Cache Cache

	// DeviceListTTL is how long to cache the account's device list.
	// Defaults to 1 minute if zero.
	DeviceListTTL time.Duration

	// PropertyTTL is how long to cache a device's property list.
	// Defaults to 10 seconds if zero.
	PropertyTTL time.Duration
}

const (
	defaultDeviceListTTL = time.Minute
	defaultPropertyTTL   = 10 * time.Second
)

// DefaultCacheConfig returns a CacheConfig with sensible defaults.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Cache:         NewMemoryCache(5 * time.Minute),
		DeviceListTTL: defaultDeviceListTTL,
		PropertyTTL:   defaultPropertyTTL,
	}
}

// cacheKey generates a cache key for the given resource type and identifiers.
func cacheKey(resourceType string, ids ...string) string {
	key := resourceType
	for _, id := range ids {
		key += ":" + id
	}
	return key
}

// WithCache enables response caching for the client.
// Cached resources are the device list and per-device property lists;
// UpdateProperty drops cached property lists.
//
// Example:
//
//	client, _ := oekoboiler.NewClient(email, password,
//	    oekoboiler.WithCache(oekoboiler.DefaultCacheConfig()),
//	)
func WithCache(config *CacheConfig) Option {
	return func(c *Client) {
		if config == nil {
			config = DefaultCacheConfig()
		}
		if config.Cache == nil {
			config.Cache = NewMemoryCache(5 * time.Minute)
		}
		if config.DeviceListTTL == 0 {
			config.DeviceListTTL = defaultDeviceListTTL
		}
		if config.PropertyTTL == 0 {
			config.PropertyTTL = defaultPropertyTTL
		}
		c.cacheConfig = config
	}
}

func (c *Client) deviceListTTL() time.Duration {
	if c.cacheConfig == nil {
		return 0
	}
	return c.cacheConfig.DeviceListTTL
}

func (c *Client) propertyTTL() time.Duration {
	if c.cacheConfig == nil {
		return 0
	}
	return c.cacheConfig.PropertyTTL
}

// getCached retrieves a value from cache or executes the fetch function and caches the result.
func (c *Client) getCached(key string, ttl time.Duration, fetch func() (any, error)) (any, error) {
	if c.cacheConfig == nil || c.cacheConfig.Cache == nil {
		return fetch()
	}

	if cached, ok := c.cacheConfig.Cache.Get(key); ok {
		return cached, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}

	c.cacheConfig.Cache.Set(key, result, ttl)
	return result, nil
}

// invalidatePrefix drops cached entries of one resource type. Caches that
// cannot delete by prefix are cleared entirely.
func (c *Client) invalidatePrefix(resourceType string) {
	if c.cacheConfig == nil || c.cacheConfig.Cache == nil {
		return
	}
	if pd, ok := c.cacheConfig.Cache.(interface{ DeletePrefix(string) }); ok {
		pd.DeletePrefix(resourceType + ":")
		return
	}
	c.cacheConfig.Cache.Clear()
}

// InvalidateCache removes all cached responses.
func (c *Client) InvalidateCache() {
	if c.cacheConfig != nil && c.cacheConfig.Cache != nil {
		c.cacheConfig.Cache.Clear()
	}
}
