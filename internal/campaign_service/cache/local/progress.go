package local

import (
	"context"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/cache"
	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
	ca "github.com/patrickmn/go-cache"
)

// ProgressCache keeps progress snapshots in process memory. Each replica
// has its own copy; use the redis implementation to share them.
type ProgressCache struct {
	c   *ca.Cache
	ttl time.Duration
}

func NewProgressCache(ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = cache.DefaultProgressTTL
	}
	return &ProgressCache{
		c:   ca.New(ttl, 2*ttl),
		ttl: ttl,
	}
}

func (p *ProgressCache) Get(_ context.Context, campaignID uuid.UUID) (domain.Progress, bool, error) {
	v, ok := p.c.Get(cache.ProgressKey(campaignID))
	if !ok {
		return domain.Progress{}, false, nil
	}
	return v.(domain.Progress), true, nil
}

func (p *ProgressCache) Set(_ context.Context, progress domain.Progress) error {
	p.c.Set(cache.ProgressKey(progress.CampaignID), progress, p.ttl)
	return nil
}

func (p *ProgressCache) Invalidate(_ context.Context, campaignID uuid.UUID) error {
	p.c.Delete(cache.ProgressKey(campaignID))
	return nil
}
