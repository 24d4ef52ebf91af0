// Package respcache implements the Response Cache (C10): a TTL cache
// keyed by <endpoint>-<format>, per spec.md §4.6. Grounded on
// hashicorp/golang-lru/v2's expirable.LRU, an indirect dependency
// already present in jfmow-gtfs's go.mod.
package respcache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds one expirable LRU per endpoint, since each endpoint has
// its own configured TTL (spec.md §6: caching_*_ttl_seconds).
type Cache struct {
	enabled bool
	byEndpoint map[string]*expirable.LRU[string, []byte]
}

// New builds a Cache with one bucket per (endpoint, ttl) pair. Pass
// enabled=false to make Get always miss and Set a no-op, matching
// app.caching_enabled=false.
func New(enabled bool, ttls map[string]time.Duration) *Cache {
	c := &Cache{enabled: enabled, byEndpoint: make(map[string]*expirable.LRU[string, []byte])}
	for endpoint, ttl := range ttls {
		c.byEndpoint[endpoint] = expirable.NewLRU[string, []byte](256, nil, ttl)
	}
	return c
}

// Get returns the cached bytes for (endpoint, format), or ok=false on
// a miss or when caching is disabled.
func (c *Cache) Get(endpoint, format string) (data []byte, ok bool) {
	if !c.enabled {
		return nil, false
	}
	bucket, ok := c.byEndpoint[endpoint]
	if !ok {
		return nil, false
	}
	return bucket.Get(key(endpoint, format))
}

// Set stores data for (endpoint, format). A no-op when caching is
// disabled or the endpoint has no configured bucket.
func (c *Cache) Set(endpoint, format string, data []byte) {
	if !c.enabled {
		return
	}
	bucket, ok := c.byEndpoint[endpoint]
	if !ok {
		return
	}
	bucket.Add(key(endpoint, format), data)
}

func key(endpoint, format string) string {
	return fmt.Sprintf("%s-%s", endpoint, format)
}
