package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
)

// ProgressCache holds short-lived progress snapshots. Implementations own
// their TTL; a miss is (zero, false, nil).
type ProgressCache interface {
	Get(ctx context.Context, campaignID uuid.UUID) (domain.Progress, bool, error)
	Set(ctx context.Context, p domain.Progress) error
	Invalidate(ctx context.Context, campaignID uuid.UUID) error
}

// ProgressTracker reports completed/total counts per campaign.
type ProgressTracker struct {
	subscribers domain.SubscriberRepository
	contacts    domain.ContactRepository
	cache       ProgressCache
	logger      *slog.Logger
}

// NewProgressTracker creates a ProgressTracker. cache may be nil to always
// read through to the store.
func NewProgressTracker(subscribers domain.SubscriberRepository, contacts domain.ContactRepository, cache ProgressCache, logger *slog.Logger) *ProgressTracker {
	return &ProgressTracker{
		subscribers: subscribers,
		contacts:    contacts,
		cache:       cache,
		logger:      logger,
	}
}

// Progress returns the campaign's progress. Total is the number of enrolled
// subscribers or, before anyone is enrolled, the number of active contacts
// in the campaign's phonebooks.
func (t *ProgressTracker) Progress(ctx context.Context, campaignID uuid.UUID) (domain.Progress, error) {
	if t.cache != nil {
		p, ok, err := t.cache.Get(ctx, campaignID)
		if err != nil {
			t.logger.WarnContext(ctx, "Progress cache read failed", "campaign_id", campaignID, "error", err)
		} else if ok {
			return p, nil
		}
	}

	counts, err := t.subscribers.CountByStatus(ctx, campaignID)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("count subscribers: %w", err)
	}
	p := domain.Progress{CampaignID: campaignID, Completed: counts[domain.SubscriberStatusComplete]}
	for _, n := range counts {
		p.Total += n
	}
	if p.Total == 0 {
		p.Total, err = t.contacts.CountActiveForCampaign(ctx, campaignID)
		if err != nil {
			return domain.Progress{}, fmt.Errorf("count active contacts: %w", err)
		}
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, p); err != nil {
			t.logger.WarnContext(ctx, "Progress cache write failed", "campaign_id", campaignID, "error", err)
		}
	}
	return p, nil
}

// Invalidate drops the cached snapshot of campaignID.
func (t *ProgressTracker) Invalidate(ctx context.Context, campaignID uuid.UUID) {
	if t == nil || t.cache == nil {
		return
	}
	if err := t.cache.Invalidate(ctx, campaignID); err != nil {
		t.logger.WarnContext(ctx, "Progress cache invalidation failed", "campaign_id", campaignID, "error", err)
	}
}
