//go:build unit

package cache

import (
	"context"
	"soulbalance/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCache(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "sqlite", FilePath: "file::memory:"})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	t.Run("miss returns nil", func(t *testing.T) {
		v, err := c.Get(ctx, "rating:404")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "rating:1", []byte(`{"avg_rating":4}`), time.Minute))
		v, err := c.Get(ctx, "rating:1")
		require.NoError(t, err)
		assert.Equal(t, `{"avg_rating":4}`, string(v))
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "rating:2", []byte("x"), -time.Second))
		v, err := c.Get(ctx, "rating:2")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "rating:3", []byte("y"), time.Minute))
		require.NoError(t, c.Delete(ctx, "rating:3"))
		v, err := c.Get(ctx, "rating:3")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}
