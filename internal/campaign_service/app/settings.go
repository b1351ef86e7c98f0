package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
)

// lookupSettings never fails the caller: a missing row or a store error
// yields nil settings, which impose no rate ceiling. Enrollment does not use
// it; see authorizationSettings.
func lookupSettings(ctx context.Context, repo domain.AccountSettingsRepository, logger *slog.Logger, accountID uuid.UUID) *domain.AccountSettings {
	settings, err := repo.GetByAccountID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.WarnContext(ctx, "Account settings lookup failed, using campaign defaults", "account_id", accountID, "error", err)
		}
		return nil
	}
	return settings
}

func maxFrequency(s *domain.AccountSettings) *int {
	if s == nil {
		return nil
	}
	return s.SMSMaxFrequency
}

// authorizationSettings loads the lists that gate enrollment. A missing row
// yields nil settings, which authorize nobody. Store errors are returned so
// the contact is not silently skipped.
func authorizationSettings(ctx context.Context, repo domain.AccountSettingsRepository, accountID uuid.UUID) (*domain.AccountSettings, error) {
	settings, err := repo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load account settings %s: %w", accountID, err)
	}
	return settings, nil
}
