package submissions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const statsCacheKey = "submissions:stats"

// StatsCache keeps the dashboard counts in Redis and collapses concurrent
// rebuilds behind a singleflight group. A nil client degrades to loading
// straight from the repository.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewStatsCache instantiates the cache helper.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Get loads cached stats or populates them using the loader.
func (c *StatsCache) Get(ctx context.Context, loader func(context.Context) (Stats, error)) (Stats, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err == nil {
		var s Stats
		if err := json.Unmarshal(payload, &s); err == nil {
			return s, nil
		}
	} else if err != redis.Nil {
		return Stats{}, err
	}

	resultChan := c.group.DoChan(statsCacheKey, func() (interface{}, error) {
		s, err := loader(ctx)
		if err != nil {
			return Stats{}, err
		}
		raw, err := json.Marshal(s)
		if err != nil {
			return Stats{}, err
		}
		if err := c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err(); err != nil {
			return Stats{}, err
		}
		return s, nil
	})
	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

// Invalidate drops the cached counts after a write.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, statsCacheKey).Err()
}
