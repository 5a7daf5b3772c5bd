package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

type versionedDoc struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

func newCacheRepository(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	repo := NewCacheRepository(client, nil)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, server
}

func TestCacheRepositorySwapVersioned(t *testing.T) {
	repo, server := newCacheRepository(t)
	ctx := context.Background()
	key := "planner:weekly:p1"

	swapped, err := repo.SwapVersioned(ctx, key, versionedDoc{ID: "p1", Version: 1}, time.Hour, 0)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Equal(t, time.Hour, server.TTL(key))

	swapped, err = repo.SwapVersioned(ctx, key, versionedDoc{ID: "p1", Version: 1}, time.Hour, 0)
	require.NoError(t, err)
	assert.False(t, swapped, "key already exists")

	swapped, err = repo.SwapVersioned(ctx, key, versionedDoc{ID: "p1", Version: 2}, 30*time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.SwapVersioned(ctx, key, versionedDoc{ID: "p1", Version: 2}, 30*time.Minute, 1)
	require.NoError(t, err)
	assert.False(t, swapped, "stale writer")

	var got versionedDoc
	require.NoError(t, repo.Get(ctx, key, &got))
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 30*time.Minute, server.TTL(key))
}

func TestCacheRepositoryMissesAndExpiry(t *testing.T) {
	repo, server := newCacheRepository(t)
	ctx := context.Background()

	var got versionedDoc
	assert.ErrorIs(t, repo.Get(ctx, "planner:weekly:none", &got), appErrors.ErrCacheMiss)

	swapped, err := repo.SwapVersioned(ctx, "planner:weekly:p2", versionedDoc{ID: "p2", Version: 3}, time.Minute, 2)
	require.NoError(t, err)
	assert.False(t, swapped, "absent key only accepts a first version")

	_, err = repo.SwapVersioned(ctx, "planner:weekly:p2", versionedDoc{ID: "p2", Version: 1}, 0, 0)
	assert.Error(t, err)

	swapped, err = repo.SwapVersioned(ctx, "planner:weekly:p2", versionedDoc{ID: "p2", Version: 1}, time.Minute, 0)
	require.NoError(t, err)
	require.True(t, swapped)
	server.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "planner:weekly:p2", &got), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositoryRejectsCorruptDocument(t *testing.T) {
	repo, server := newCacheRepository(t)
	ctx := context.Background()
	require.NoError(t, server.Set("planner:weekly:bad", "not json"))

	swapped, err := repo.SwapVersioned(ctx, "planner:weekly:bad", versionedDoc{ID: "bad", Version: 1}, time.Minute, 0)
	require.NoError(t, err)
	assert.False(t, swapped)

	var got versionedDoc
	assert.Error(t, repo.Get(ctx, "planner:weekly:bad", &got))
}
