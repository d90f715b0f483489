package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryCacheExpiry(t *testing.T) {
	c := NewInMemoryCache[string, int](time.Minute, 0)
	defer c.Close()
	now := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, 0)
	c.Set("b", 2, 10*time.Second)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(10 * time.Second)
	_, ok = c.Get("b")
	assert.False(t, ok, "expires exactly at ttl")
	assert.Equal(t, 1, c.Size())

	now = now.Add(time.Minute)
	c.cleanup()
	assert.Equal(t, 0, c.Size())
}

func TestInMemoryCacheDisabledTTL(t *testing.T) {
	c := NewInMemoryCache[string, int](0, 0)
	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestInMemoryCacheDeleteAndClose(t *testing.T) {
	c := NewInMemoryCache[string, int](time.Minute, time.Millisecond)
	c.Set("a", 1, 0)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	c.Close()
	c.Close()
}
