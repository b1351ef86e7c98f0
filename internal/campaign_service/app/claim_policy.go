package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
)

// ClaimPolicy bounds what a campaign may claim at a given instant. The
// scheduler and worker-driven claims share it so both paths see the same
// eligibility window and per-tick rate ceiling.
type ClaimPolicy struct {
	settings domain.AccountSettingsRepository
	logger   *slog.Logger
	location *time.Location
	window   time.Duration
}

// NewClaimPolicy creates a ClaimPolicy. Eligibility is evaluated in location
// and budgets are sized for one window (normally the scheduler tick).
func NewClaimPolicy(settings domain.AccountSettingsRepository, logger *slog.Logger, location *time.Location, window time.Duration) *ClaimPolicy {
	if location == nil {
		location = time.UTC
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ClaimPolicy{
		settings: settings,
		logger:   logger,
		location: location,
		window:   window,
	}
}

// Budget returns how many subscribers c may claim at now, with the
// eligibility report that decided it. The budget is zero when c is not running.
func (p *ClaimPolicy) Budget(ctx context.Context, c *domain.Campaign, now time.Time) (int, domain.EligibilityReport) {
	report := domain.Eligibility(c, now.In(p.location))
	if !report.Running() {
		return 0, report
	}
	_, budget := p.rateBudget(ctx, c)
	return budget, report
}

func (p *ClaimPolicy) rateBudget(ctx context.Context, c *domain.Campaign) (rate, budget int) {
	settings := lookupSettings(ctx, p.settings, p.logger, c.AccountID)
	rate = domain.EffectiveRate(c, maxFrequency(settings))
	return rate, domain.ClaimBudget(rate, p.window)
}
