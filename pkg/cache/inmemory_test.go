package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("price:AAPL", 187.25, time.Minute)
	c.Set("name", "journal", time.Minute)

	price, ok := GetFromCache[float64](c, "price:AAPL")
	assert.True(t, ok)
	assert.Equal(t, 187.25, price)

	_, ok = GetFromCache[float64](c, "name")
	assert.False(t, ok, "wrong type is a miss")

	_, ok = GetFromCache[float64](c, "missing")
	assert.False(t, ok)

	c.Delete("price:AAPL")
	_, ok = GetFromCache[float64](c, "price:AAPL")
	assert.False(t, ok)

	_, ok = GetFromCache[float64](nil, "price:AAPL")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("short", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
}
