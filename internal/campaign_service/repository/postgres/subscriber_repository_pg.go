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

const subscriberColumns = `s.id, s.campaign_id, s.contact_id, s.message_id, s.duplicate_contact, s.status,
	s.count_attempt, s.last_attempt, s.created_at, s.updated_at`

type PgSubscriberRepository struct {
	db     database.Pool
	logger *slog.Logger
}

func NewPgSubscriberRepository(db database.Pool, logger *slog.Logger) *PgSubscriberRepository {
	return &PgSubscriberRepository{db: db, logger: logger.With("component", "subscriber_repository")}
}

func scanSubscriber(row rowScanner) (*domain.Subscriber, error) {
	s := &domain.Subscriber{}
	err := row.Scan(&s.ID, &s.CampaignID, &s.ContactID, &s.MessageID, &s.DuplicateContact, &s.Status,
		&s.CountAttempt, &s.LastAttempt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func collectSubscribers(rows pgx.Rows) ([]*domain.Subscriber, error) {
	defer rows.Close()
	var subs []*domain.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Insert returns domain.ErrDuplicateEntry when the contact is already
// enrolled in the campaign.
func (r *PgSubscriberRepository) Insert(ctx context.Context, s *domain.Subscriber) error {
	query := `
		INSERT INTO campaign_subscribers (id, campaign_id, contact_id, duplicate_contact, status, count_attempt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (contact_id, campaign_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		s.ID, s.CampaignID, s.ContactID, s.DuplicateContact, s.Status, s.CountAttempt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error inserting subscriber", "error", err, "campaign_id", s.CampaignID, "contact_id", s.ContactID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateEntry
	}
	return nil
}

// ClaimPending locks up to limit eligible rows with SKIP LOCKED and moves
// them to in_progress in the same statement, so concurrent claimers never
// share a row.
func (r *PgSubscriberRepository) ClaimPending(ctx context.Context, campaignID uuid.UUID, limit int, now time.Time) ([]*domain.Subscriber, error) {
	query := `
		WITH claimable AS (
			SELECT s.id
			FROM campaign_subscribers s
			JOIN sms_campaigns c ON c.id = s.campaign_id
			WHERE s.campaign_id = $1 AND s.status = $2
			  AND (s.last_attempt IS NULL
			       OR s.last_attempt <= $3::timestamptz - make_interval(secs => c.interval_retry))
			ORDER BY s.last_attempt ASC NULLS FIRST, s.created_at ASC
			LIMIT $4
			FOR UPDATE OF s SKIP LOCKED
		)
		UPDATE campaign_subscribers s
		SET status = $5, last_attempt = $3, count_attempt = s.count_attempt + 1, updated_at = $3
		FROM claimable
		WHERE s.id = claimable.id
		RETURNING ` + subscriberColumns
	// $1 = campaign, $2 = pending, $3 = now, $4 = limit, $5 = in_progress
	rows, err := r.db.Query(ctx, query, campaignID, domain.SubscriberStatusPending, now, limit, domain.SubscriberStatusInProgress)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error claiming subscribers", "error", err, "campaign_id", campaignID)
		return nil, err
	}
	subs, err := collectSubscribers(rows)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error reading claimed subscribers", "error", err, "campaign_id", campaignID)
		return nil, err
	}
	return subs, nil
}

// ReportOutcome locks the subscriber row, resolves the next status against
// the campaign's retry policy and writes it back.
func (r *PgSubscriberRepository) ReportOutcome(ctx context.Context, id uuid.UUID, success bool, messageID uuid.NullUUID, now time.Time) (*domain.Subscriber, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin report outcome: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current domain.SubscriberStatus
	var countAttempt, maxRetry int
	err = tx.QueryRow(ctx, `
		SELECT s.status, s.count_attempt, c.max_retry
		FROM campaign_subscribers s
		JOIN sms_campaigns c ON c.id = s.campaign_id
		WHERE s.id = $1
		FOR UPDATE OF s`, id).Scan(&current, &countAttempt, &maxRetry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error locking subscriber", "error", err, "subscriber_id", id)
		return nil, err
	}

	next, err := domain.ResolveOutcome(current, countAttempt, maxRetry, success)
	if err != nil {
		return nil, err
	}

	s, err := scanSubscriber(tx.QueryRow(ctx, `
		UPDATE campaign_subscribers s
		SET status = $1, message_id = COALESCE($2, s.message_id), updated_at = $3
		WHERE s.id = $4
		RETURNING `+subscriberColumns, next, messageID, now, id))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating subscriber outcome", "error", err, "subscriber_id", id)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit report outcome: %w", err)
	}
	return s, nil
}

func (r *PgSubscriberRepository) RequeueStale(ctx context.Context, cutoff, now time.Time) (int, error) {
	query := `
		UPDATE campaign_subscribers
		SET status = $1, updated_at = $2
		WHERE status = $3 AND last_attempt < $4
	`
	tag, err := r.db.Exec(ctx, query, domain.SubscriberStatusPending, now, domain.SubscriberStatusInProgress, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error requeueing stale claims", "error", err)
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgSubscriberRepository) CancelPendingForContact(ctx context.Context, contactID uuid.UUID, now time.Time) (int, error) {
	query := `
		UPDATE campaign_subscribers
		SET status = $1, updated_at = $2
		WHERE contact_id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, domain.SubscriberStatusCancelled, now, contactID, domain.SubscriberStatusPending)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error cancelling pending subscribers", "error", err, "contact_id", contactID)
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgSubscriberRepository) ListPending(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + `
		FROM campaign_subscribers s
		WHERE s.campaign_id = $1 AND s.status = $2
		ORDER BY s.last_attempt ASC NULLS FIRST, s.created_at ASC
		LIMIT $3`
	rows, err := r.db.Query(ctx, query, campaignID, domain.SubscriberStatusPending, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing pending subscribers", "error", err, "campaign_id", campaignID)
		return nil, err
	}
	return collectSubscribers(rows)
}

func (r *PgSubscriberRepository) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[domain.SubscriberStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM campaign_subscribers WHERE campaign_id = $1 GROUP BY status`, campaignID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error counting subscribers", "error", err, "campaign_id", campaignID)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.SubscriberStatus]int)
	for rows.Next() {
		var status domain.SubscriberStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
