package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
)

// SubscriberQueue is the application face of the persistent subscriber queue.
type SubscriberQueue struct {
	repo      domain.SubscriberRepository
	campaigns domain.CampaignRepository
	policy    *ClaimPolicy
	progress  *ProgressTracker
	logger    *slog.Logger
	now       func() time.Time
}

// NewSubscriberQueue creates a SubscriberQueue. progress may be nil.
func NewSubscriberQueue(repo domain.SubscriberRepository, campaigns domain.CampaignRepository, policy *ClaimPolicy, progress *ProgressTracker, logger *slog.Logger) *SubscriberQueue {
	return &SubscriberQueue{
		repo:      repo,
		campaigns: campaigns,
		policy:    policy,
		progress:  progress,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ClaimPending claims up to limit retry-eligible pending subscribers of a
// campaign for the caller. Concurrent callers never receive the same row.
// A campaign that is not running yields no claims, and limit is capped at
// the campaign's per-tick budget.
func (q *SubscriberQueue) ClaimPending(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.Subscriber, error) {
	if limit <= 0 {
		return nil, nil
	}
	c, err := q.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign %s: %w", campaignID, err)
	}
	now := q.now()
	budget, report := q.policy.Budget(ctx, c, now)
	if budget == 0 {
		claimsRejectedCounter.WithLabelValues(report.Reason()).Inc()
		q.logger.DebugContext(ctx, "Claim refused, campaign not running", "campaign_id", campaignID, "reason", report.Reason())
		return nil, nil
	}
	if limit > budget {
		limit = budget
	}
	return q.claim(ctx, campaignID, limit, now, "api")
}

func (q *SubscriberQueue) claim(ctx context.Context, campaignID uuid.UUID, limit int, now time.Time, source string) ([]*domain.Subscriber, error) {
	if limit <= 0 {
		return nil, nil
	}
	claimed, err := q.repo.ClaimPending(ctx, campaignID, limit, now)
	if err != nil {
		return nil, fmt.Errorf("claim pending subscribers: %w", err)
	}
	if len(claimed) > 0 {
		claimedCounter.WithLabelValues(source).Add(float64(len(claimed)))
		q.logger.DebugContext(ctx, "Claimed subscribers", "campaign_id", campaignID, "count", len(claimed), "limit", limit)
	}
	return claimed, nil
}

// ReportOutcome records the result of a dispatch attempt. Failed attempts
// go back to pending while the campaign's retry budget allows it.
func (q *SubscriberQueue) ReportOutcome(ctx context.Context, subscriberID uuid.UUID, success bool, messageID uuid.NullUUID) (*domain.Subscriber, error) {
	s, err := q.repo.ReportOutcome(ctx, subscriberID, success, messageID, q.now())
	if err != nil {
		return nil, fmt.Errorf("report outcome for subscriber %s: %w", subscriberID, err)
	}
	outcomesCounter.WithLabelValues(string(s.Status)).Inc()
	q.logger.InfoContext(ctx, "Subscriber outcome recorded",
		"subscriber_id", s.ID, "campaign_id", s.CampaignID, "success", success,
		"status", s.Status, "count_attempt", s.CountAttempt)
	q.progress.Invalidate(ctx, s.CampaignID)
	return s, nil
}

// RequeueStale returns claims older than olderThan to pending.
func (q *SubscriberQueue) RequeueStale(ctx context.Context, olderThan time.Duration) (int, error) {
	now := q.now()
	n, err := q.repo.RequeueStale(ctx, now.Add(-olderThan), now)
	if err != nil {
		return 0, fmt.Errorf("requeue stale claims: %w", err)
	}
	if n > 0 {
		requeuedCounter.Add(float64(n))
		q.logger.WarnContext(ctx, "Requeued stale claims", "count", n, "older_than", olderThan)
	}
	return n, nil
}

// PeekPending lists pending subscribers without claiming them.
func (q *SubscriberQueue) PeekPending(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.Subscriber, error) {
	subs, err := q.repo.ListPending(ctx, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending subscribers: %w", err)
	}
	return subs, nil
}

// RunReaper calls RequeueStale every interval until ctx is done.
func (q *SubscriberQueue) RunReaper(ctx context.Context, interval, olderThan time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.InfoContext(ctx, "Stale claim reaper started", "interval", interval, "older_than", olderThan)
	for {
		select {
		case <-ctx.Done():
			q.logger.InfoContext(ctx, "Stale claim reaper stopping")
			return nil
		case <-ticker.C:
			if _, err := q.RequeueStale(ctx, olderThan); err != nil {
				q.logger.ErrorContext(ctx, "Stale claim reaper run failed", "error", err)
			}
		}
	}
}
