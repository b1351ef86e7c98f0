package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/cache"
	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProgressCache shares progress snapshots between replicas through Redis.
type ProgressCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewProgressCache(rdb redis.Cmdable, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = cache.DefaultProgressTTL
	}
	return &ProgressCache{rdb: rdb, ttl: ttl}
}

func (c *ProgressCache) Get(ctx context.Context, campaignID uuid.UUID) (domain.Progress, bool, error) {
	val, err := c.rdb.Get(ctx, cache.ProgressKey(campaignID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Progress{}, false, nil
		}
		return domain.Progress{}, false, fmt.Errorf("failed to get progress from redis: %w", err)
	}

	var p domain.Progress
	if err := json.Unmarshal(val, &p); err != nil {
		return domain.Progress{}, false, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return p, true, nil
}

func (c *ProgressCache) Set(ctx context.Context, p domain.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := c.rdb.Set(ctx, cache.ProgressKey(p.CampaignID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set progress in redis: %w", err)
	}
	return nil
}

func (c *ProgressCache) Invalidate(ctx context.Context, campaignID uuid.UUID) error {
	if err := c.rdb.Del(ctx, cache.ProgressKey(campaignID)).Err(); err != nil {
		return fmt.Errorf("failed to delete progress from redis: %w", err)
	}
	return nil
}
