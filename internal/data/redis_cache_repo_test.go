package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobmatch/internal/testutil"
)

func TestRedisCacheRepo_Set_Get_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	defer client.Close()

	repo := NewRedisCacheRepo(client, "")
	ctx := context.Background()

	t.Run("set and get with prefix", func(t *testing.T) {
		value := []byte(`{"condition":"snow"}`)
		ttl := 5 * time.Minute

		require.NoError(t, repo.Set(ctx, "weather:cell:1.00,2.00", value, ttl))

		result, err := repo.Get(ctx, "weather:cell:1.00,2.00")
		require.NoError(t, err)
		assert.Equal(t, value, result)

		actualTTL := client.TTL(ctx, DefaultCacheKeyPrefix+"weather:cell:1.00,2.00").Val()
		assert.True(t, actualTTL > 0 && actualTTL <= ttl)
	})

	t.Run("get non-existent key", func(t *testing.T) {
		result, err := repo.Get(ctx, "non:existent:key")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete and exists", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "k2", []byte("v"), time.Minute))

		exists, err := repo.Exists(ctx, "k2")
		require.NoError(t, err)
		assert.True(t, exists)

		deleted, err := repo.Delete(ctx, "k2")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "k2")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("health", func(t *testing.T) {
		require.NoError(t, repo.Health(ctx))
	})
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	repo := NewRedisCacheRepo(nil, "")
	ctx := context.Background()

	require.ErrorIs(t, repo.Set(ctx, "", nil, 0), errEmptyKey)
	_, err := repo.Get(ctx, "")
	require.ErrorIs(t, err, errEmptyKey)
	_, err = repo.Delete(ctx, "")
	require.ErrorIs(t, err, errEmptyKey)
	_, err = repo.Exists(ctx, "")
	require.ErrorIs(t, err, errEmptyKey)
}
