package respcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_DisabledCaching_AlwaysMisses(t *testing.T) {
	c := New(false, map[string]time.Duration{"trip-updates": time.Minute})
	c.Set("trip-updates", "pbf", []byte("data"))

	_, ok := c.Get("trip-updates", "pbf")
	assert.False(t, ok)
}

func TestCache_HitAfterSet(t *testing.T) {
	c := New(true, map[string]time.Duration{"trip-updates": time.Minute})
	c.Set("trip-updates", "pbf", []byte("payload"))

	data, ok := c.Get("trip-updates", "pbf")
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
}

func TestCache_FormatsAreKeyedSeparately(t *testing.T) {
	c := New(true, map[string]time.Duration{"trip-updates": time.Minute})
	c.Set("trip-updates", "pbf", []byte("binary"))

	_, ok := c.Get("trip-updates", "json")
	assert.False(t, ok, "pbf and json must not share a cache entry")
}

func TestCache_UnconfiguredEndpoint_NoBucket(t *testing.T) {
	c := New(true, map[string]time.Duration{"trip-updates": time.Minute})
	c.Set("service-alerts", "pbf", []byte("x"))

	_, ok := c.Get("service-alerts", "pbf")
	assert.False(t, ok, "Set on an endpoint with no configured TTL bucket is a no-op")
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(true, map[string]time.Duration{"trip-updates": 10 * time.Millisecond})
	c.Set("trip-updates", "pbf", []byte("payload"))

	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("trip-updates", "pbf")
	assert.False(t, ok, "entry must expire once its TTL elapses")
}
