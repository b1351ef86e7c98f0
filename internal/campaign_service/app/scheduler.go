package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/messagebroker"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// SchedulerConfig holds configuration specific to the CampaignScheduler.
type SchedulerConfig struct {
	TickInterval    time.Duration
	Location        *time.Location
	Concurrency     int
	DispatchSubject string
}

// TickResult summarizes one scheduling tick.
type TickResult struct {
	Expired    int
	Eligible   int
	Claimed    int
	Dispatched int
}

// CampaignScheduler selects running campaigns on every tick, claims their
// budget of pending subscribers and hands each claim to the transport.
type CampaignScheduler struct {
	campaigns domain.CampaignRepository
	queue     *SubscriberQueue
	policy    *ClaimPolicy
	publisher messagebroker.Publisher
	logger    *slog.Logger
	config    SchedulerConfig
	now       func() time.Time
}

// NewCampaignScheduler creates a new CampaignScheduler instance.
func NewCampaignScheduler(
	campaigns domain.CampaignRepository,
	settings domain.AccountSettingsRepository,
	queue *SubscriberQueue,
	publisher messagebroker.Publisher,
	logger *slog.Logger,
	cfg SchedulerConfig,
) *CampaignScheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &CampaignScheduler{
		campaigns: campaigns,
		queue:     queue,
		policy:    NewClaimPolicy(settings, logger, cfg.Location, cfg.TickInterval),
		publisher: publisher,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// Run ticks immediately and then every TickInterval until ctx is done.
// Tick errors are logged; the next tick retries.
func (s *CampaignScheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Campaign scheduler started", "tick_interval", s.config.TickInterval, "timezone", s.config.Location.String())
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "Scheduling tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Campaign scheduler stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one scheduling pass: expired campaigns are ended, then every
// running campaign claims and dispatches up to its per-tick budget.
func (s *CampaignScheduler) Tick(ctx context.Context) (TickResult, error) {
	timer := prometheus.NewTimer(tickDurationHist)
	defer timer.ObserveDuration()

	now := s.now().In(s.config.Location)
	var result TickResult

	result.Expired = s.expireCampaigns(ctx, now)

	started, err := s.campaigns.ListByStatus(ctx, domain.CampaignStatusStart)
	if err != nil {
		ticksCounter.WithLabelValues("error").Inc()
		return result, fmt.Errorf("list started campaigns: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for _, c := range started {
		if report := domain.Eligibility(c, now); !report.Running() {
			s.logger.DebugContext(ctx, "Campaign not eligible", "campaign_id", c.ID, "reason", report.Reason())
			continue
		}
		result.Eligible++
		c := c
		g.Go(func() error {
			claimed, dispatched := s.dispatchCampaign(gctx, c, now)
			mu.Lock()
			result.Claimed += claimed
			result.Dispatched += dispatched
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	ticksCounter.WithLabelValues("ok").Inc()
	if result.Eligible > 0 || result.Expired > 0 {
		s.logger.InfoContext(ctx, "Scheduling tick complete",
			"expired", result.Expired, "eligible", result.Eligible,
			"claimed", result.Claimed, "dispatched", result.Dispatched)
	}
	return result, nil
}

func (s *CampaignScheduler) expireCampaigns(ctx context.Context, now time.Time) int {
	expired, err := s.campaigns.ListExpired(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list expired campaigns", "error", err)
		return 0
	}
	n := 0
	for _, c := range expired {
		if !domain.IsExpired(c, now) {
			continue
		}
		err := s.campaigns.UpdateStatus(ctx, c.ID, c.Status, domain.CampaignStatusEnd)
		if err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				s.logger.InfoContext(ctx, "Campaign status changed before expiry, skipping", "campaign_id", c.ID)
				continue
			}
			s.logger.ErrorContext(ctx, "Failed to end expired campaign", "campaign_id", c.ID, "error", err)
			continue
		}
		n++
		expiredCounter.Inc()
		s.logger.InfoContext(ctx, "Campaign expired", "campaign_id", c.ID, "previous_status", c.Status, "expiration_date", c.ExpirationDate)
	}
	return n
}

// dispatchCampaign claims the campaign's budget and publishes a DispatchJob
// per claim. A claim whose publish fails stays in_progress until the reaper
// returns it to pending.
func (s *CampaignScheduler) dispatchCampaign(ctx context.Context, c *domain.Campaign, now time.Time) (claimed, dispatched int) {
	rate, budget := s.policy.rateBudget(ctx, c)

	subs, err := s.queue.claim(ctx, c.ID, budget, now, "scheduler")
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to claim subscribers", "campaign_id", c.ID, "error", err)
		return 0, 0
	}

	for _, sub := range subs {
		job := domain.NewDispatchJob(c, sub)
		data, err := json.Marshal(job)
		if err != nil {
			dispatchErrorsCounter.Inc()
			s.logger.ErrorContext(ctx, "Failed to marshal dispatch job", "subscriber_id", sub.ID, "error", err)
			continue
		}
		if err := s.publisher.Publish(ctx, s.config.DispatchSubject, data); err != nil {
			dispatchErrorsCounter.Inc()
			s.logger.ErrorContext(ctx, "Failed to publish dispatch job", "subscriber_id", sub.ID, "campaign_id", c.ID, "subject", s.config.DispatchSubject, "error", err)
			continue
		}
		dispatched++
	}
	s.logger.DebugContext(ctx, "Campaign dispatched", "campaign_id", c.ID, "rate", rate, "budget", budget, "claimed", len(subs), "dispatched", dispatched)
	return len(subs), dispatched
}
