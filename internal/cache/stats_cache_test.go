package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/cache"
	"github.com/spec-kit/complaint-portal/internal/domain"
)

func newRedisCache(t *testing.T) (*cache.StatsCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStatsCache(client, time.Minute), server
}

func sampleStats() *domain.ComplaintStats {
	return &domain.ComplaintStats{
		Total:              3,
		Open:               1,
		Resolved:           2,
		AvgResolutionHours: 12.5,
		AvgRating:          4.5,
		ByCategory: []domain.CategoryCount{
			{Category: domain.CategoryElectrical, Count: 1},
			{Category: domain.CategoryPlumbing, Count: 2},
		},
	}
}

func TestStatsCache_DisabledIsAlwaysMiss(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*cache.StatsCache{nil, cache.NewStatsCache(nil, time.Minute)} {
		assert.NoError(t, c.Set(ctx, 0, &domain.ComplaintStats{Total: 3}))
		stats, generation, err := c.Get(ctx)
		assert.NoError(t, err)
		assert.Nil(t, stats)
		assert.Zero(t, generation)
		assert.NoError(t, c.Invalidate(ctx))
	}
}

func TestStatsCache_RoundTripWithTTL(t *testing.T) {
	c, server := newRedisCache(t)
	ctx := context.Background()

	stats, generation, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats)

	require.NoError(t, c.Set(ctx, generation, sampleStats()))
	cached, _, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleStats(), cached)
	assert.Equal(t, time.Minute, server.TTL("complaints:stats:overview"))

	server.FastForward(2 * time.Minute)
	expired, _, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestStatsCache_InvalidateStartsNewGeneration(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 0, sampleStats()))

	require.NoError(t, c.Invalidate(ctx))

	stats, generation, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats)
	assert.Equal(t, int64(1), generation)
}

func TestStatsCache_DropsWriteFromOlderGeneration(t *testing.T) {
	c, server := newRedisCache(t)
	ctx := context.Background()

	_, readAt, err := c.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	require.NoError(t, c.Set(ctx, readAt, sampleStats()))

	stats, _, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats)
	assert.False(t, server.Exists("complaints:stats:overview"))
}

func TestStatsCache_UnreachableRedis(t *testing.T) {
	c, server := newRedisCache(t)
	server.Close()

	_, _, err := c.Get(context.Background())

	assert.Error(t, err)
}
