package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

const (
	statsKey      = "complaints:stats:overview"
	generationKey = "complaints:stats:generation"
)

// StatsCache keeps the admin statistics overview in Redis. Every invalidation bumps a
// generation counter; a write carrying an older generation is dropped.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache returns a cache; a nil client or zero ttl disables caching.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached stats and the generation observed with them. A miss returns nil stats.
func (c *StatsCache) Get(ctx context.Context) (*domain.ComplaintStats, int64, error) {
	if !c.enabled() {
		return nil, 0, nil
	}
	values, err := c.client.MGet(ctx, statsKey, generationKey).Result()
	if err != nil {
		return nil, 0, err
	}
	generation, err := parseGeneration(values[1])
	if err != nil {
		return nil, 0, err
	}
	raw, ok := values[0].(string)
	if !ok {
		return nil, generation, nil
	}
	var stats domain.ComplaintStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, generation, err
	}
	return &stats, generation, nil
}

// Set stores stats for the configured ttl unless the generation moved since it was read.
func (c *StatsCache) Set(ctx context.Context, generation int64, stats *domain.ComplaintStats) error {
	if !c.enabled() || stats == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, statsKey, raw, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the cached overview and starts a new generation.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, statsKey)
		return nil
	})
	return err
}

func parseGeneration(value any) (int64, error) {
	raw, ok := value.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
