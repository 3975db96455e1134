package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementCache(t *testing.T) {
	c, err := NewStatementCache[string](2)
	require.NoError(t, err)

	c.Set("postgres", "u from User u", "select u.id from users u")
	v, ok := c.Get("postgres", "u from User u")
	require.True(t, ok)
	assert.Equal(t, "select u.id from users u", v)

	_, ok = c.Get("mysql", "u from User u")
	assert.False(t, ok)

	c.Set("postgres", "a", "1")
	c.Set("postgres", "b", "2")
	assert.Equal(t, 2, c.Len())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestDefaultSize(t *testing.T) {
	c, err := NewStatementCache[int](0)
	require.NoError(t, err)
	for i := 0; i < DefaultSize+10; i++ {
		c.Set("sqlite", string(rune('a'+i%26))+string(rune(i)), i)
	}
	assert.Equal(t, DefaultSize, c.Len())
}
