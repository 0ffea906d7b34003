package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	c := New[[]byte](time.Minute, 2)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", []byte("A"))
	c.Set("b", []byte("B"))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("A"), got)

	c.Set("c", []byte("C"))
	assert.Equal(t, 1, c.Len())
}

func TestCache_Expired(t *testing.T) {
	c := New[int](-time.Second, 10)
	c.Set("a", 1)
	got, ok := c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestCache_ReplacesKey(t *testing.T) {
	c := New[string](time.Minute, 10)
	c.Set("a", "first")
	c.Set("a", "second")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Len())
}
