package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignSelect = `
	SELECT c.id, c.code, c.account_id, c.name, c.description, c.status, c.starting_date, c.expiration_date,
		c.daily_start_time, c.daily_stop_time, c.active_days, c.frequency, c.max_retry, c.interval_retry,
		c.gateway_id, c.text_message, c.extra_data, c.imported_phonebooks, c.total_contact, c.created_at, c.updated_at,
		ARRAY(SELECT p.phonebook_id FROM sms_campaign_phonebooks p WHERE p.campaign_id = c.id ORDER BY p.phonebook_id) AS phonebook_ids
	FROM sms_campaigns c`

type PgCampaignRepository struct {
	db     database.Pool
	logger *slog.Logger
}

func NewPgCampaignRepository(db database.Pool, logger *slog.Logger) *PgCampaignRepository {
	return &PgCampaignRepository{db: db, logger: logger.With("component", "campaign_repository")}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var dailyStart, dailyStop int
	var activeDays int16
	err := row.Scan(
		&c.ID, &c.Code, &c.AccountID, &c.Name, &c.Description, &c.Status, &c.StartingDate, &c.ExpirationDate,
		&dailyStart, &dailyStop, &activeDays, &c.Frequency, &c.MaxRetry, &c.IntervalRetry,
		&c.GatewayID, &c.TextMessage, &c.ExtraData, &c.ImportedPhonebooks, &c.TotalContact, &c.CreatedAt, &c.UpdatedAt,
		&c.PhonebookIDs,
	)
	if err != nil {
		return nil, err
	}
	c.DailyStartTime = domain.TimeOfDay(dailyStart)
	c.DailyStopTime = domain.TimeOfDay(dailyStop)
	c.ActiveDays = domain.WeekdayMask(activeDays)
	return c, nil
}

// Create inserts the campaign and its phonebook links in one transaction.
func (r *PgCampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create campaign: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO sms_campaigns (id, code, account_id, name, description, status, starting_date, expiration_date,
			daily_start_time, daily_stop_time, active_days, frequency, max_retry, interval_retry,
			gateway_id, text_message, extra_data, total_contact, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = tx.Exec(ctx, query,
		c.ID, c.Code, c.AccountID, c.Name, c.Description, c.Status, c.StartingDate, c.ExpirationDate,
		int(c.DailyStartTime), int(c.DailyStopTime), int16(c.ActiveDays), c.Frequency, c.MaxRetry, c.IntervalRetry,
		c.GatewayID, c.TextMessage, c.ExtraData, c.TotalContact, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating campaign", "error", err, "campaign_id", c.ID)
		return err
	}

	for _, pb := range c.PhonebookIDs {
		if _, err := tx.Exec(ctx, attachPhonebookQuery, c.ID, pb); err != nil {
			r.logger.ErrorContext(ctx, "Error linking phonebook to new campaign", "error", err, "campaign_id", c.ID, "phonebook_id", pb)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create campaign: %w", err)
	}
	r.logger.InfoContext(ctx, "Campaign created", "campaign_id", c.ID, "code", c.Code)
	return nil
}

func (r *PgCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, campaignSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting campaign by ID", "error", err, "campaign_id", id)
		return nil, err
	}
	return c, nil
}

func (r *PgCampaignRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Campaign, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing campaigns", "error", err)
		return nil, err
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning campaign row", "error", err)
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating campaign rows", "error", err)
		return nil, err
	}
	return campaigns, nil
}

func (r *PgCampaignRepository) ListByStatus(ctx context.Context, status domain.CampaignStatus) ([]*domain.Campaign, error) {
	return r.list(ctx, campaignSelect+` WHERE c.status = $1 ORDER BY c.created_at`, status)
}

func (r *PgCampaignRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	return r.list(ctx, campaignSelect+` WHERE c.expiration_date <= $1 AND c.status <> $2 ORDER BY c.expiration_date`,
		now, domain.CampaignStatusEnd)
}

func (r *PgCampaignRepository) ListStartedForPhonebook(ctx context.Context, phonebookID uuid.UUID) ([]*domain.Campaign, error) {
	return r.list(ctx, campaignSelect+`
		WHERE c.status = $1
		  AND EXISTS (SELECT 1 FROM sms_campaign_phonebooks p WHERE p.campaign_id = c.id AND p.phonebook_id = $2)
		ORDER BY c.created_at`,
		domain.CampaignStatusStart, phonebookID)
}

// UpdateStatus is a compare-and-set on status.
func (r *PgCampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.CampaignStatus) error {
	query := `UPDATE sms_campaigns SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating campaign status", "error", err, "campaign_id", id, "new_status", to)
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sms_campaigns WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	r.logger.WarnContext(ctx, "Campaign status changed concurrently", "campaign_id", id, "expected_status", from)
	return domain.ErrStatusConflict
}

const attachPhonebookQuery = `
	INSERT INTO sms_campaign_phonebooks (campaign_id, phonebook_id) VALUES ($1, $2)
	ON CONFLICT (campaign_id, phonebook_id) DO NOTHING`

func (r *PgCampaignRepository) AttachPhonebook(ctx context.Context, campaignID, phonebookID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, attachPhonebookQuery, campaignID, phonebookID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error attaching phonebook", "error", err, "campaign_id", campaignID, "phonebook_id", phonebookID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateEntry
	}
	return nil
}

func (r *PgCampaignRepository) RecordImport(ctx context.Context, campaignID, phonebookID uuid.UUID, totalContact int) error {
	query := `
		UPDATE sms_campaigns
		SET imported_phonebooks = CASE
				WHEN $2::uuid = ANY (imported_phonebooks) THEN imported_phonebooks
				ELSE array_append(imported_phonebooks, $2::uuid)
			END,
			total_contact = $3,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, campaignID, phonebookID, totalContact)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error recording phonebook import", "error", err, "campaign_id", campaignID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
