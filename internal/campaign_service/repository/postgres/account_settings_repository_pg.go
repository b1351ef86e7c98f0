package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgAccountSettingsRepository struct {
	db     database.Pool
	logger *slog.Logger
}

func NewPgAccountSettingsRepository(db database.Pool, logger *slog.Logger) *PgAccountSettingsRepository {
	return &PgAccountSettingsRepository{db: db, logger: logger.With("component", "account_settings_repository")}
}

func (r *PgAccountSettingsRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.AccountSettings, error) {
	s := &domain.AccountSettings{}
	err := r.db.QueryRow(ctx,
		`SELECT account_id, sms_max_frequency, whitelist, blacklist FROM account_settings WHERE account_id = $1`,
		accountID,
	).Scan(&s.AccountID, &s.SMSMaxFrequency, &s.Whitelist, &s.Blacklist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting account settings", "error", err, "account_id", accountID)
		return nil, err
	}
	return s, nil
}
