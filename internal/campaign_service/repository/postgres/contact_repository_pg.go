package postgres

import (
	"context"
	"log/slog"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/database"
	"github.com/google/uuid"
)

// PgContactRepository reads the phonebook service's contacts table.
type PgContactRepository struct {
	db     database.Pool
	logger *slog.Logger
}

func NewPgContactRepository(db database.Pool, logger *slog.Logger) *PgContactRepository {
	return &PgContactRepository{db: db, logger: logger.With("component", "contact_repository")}
}

func (r *PgContactRepository) FindUnenrolledActiveContacts(ctx context.Context, campaignID uuid.UUID) ([]*domain.Contact, error) {
	query := `
		SELECT ct.id, ct.phonebook_id, ct.number, ct.first_name, ct.last_name, ct.email, ct.status, ct.created_at, ct.updated_at
		FROM contacts ct
		JOIN sms_campaign_phonebooks p ON p.phonebook_id = ct.phonebook_id
		WHERE p.campaign_id = $1 AND ct.status = $2
		  AND NOT EXISTS (
			SELECT 1 FROM campaign_subscribers s
			WHERE s.campaign_id = p.campaign_id AND s.contact_id = ct.id
		  )
		ORDER BY ct.created_at
	`
	rows, err := r.db.Query(ctx, query, campaignID, domain.ContactStatusActive)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error finding unenrolled contacts", "error", err, "campaign_id", campaignID)
		return nil, err
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		c := &domain.Contact{}
		if err := rows.Scan(&c.ID, &c.PhonebookID, &c.Number, &c.FirstName, &c.LastName, &c.Email, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning contact row", "error", err)
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *PgContactRepository) CountActiveForCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM contacts ct
		JOIN sms_campaign_phonebooks p ON p.phonebook_id = ct.phonebook_id
		WHERE p.campaign_id = $1 AND ct.status = $2`, campaignID, domain.ContactStatusActive).Scan(&n)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error counting active contacts", "error", err, "campaign_id", campaignID)
		return 0, err
	}
	return n, nil
}

func (r *PgContactRepository) CountForCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM contacts ct
		JOIN sms_campaign_phonebooks p ON p.phonebook_id = ct.phonebook_id
		WHERE p.campaign_id = $1`, campaignID).Scan(&n)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error counting contacts", "error", err, "campaign_id", campaignID)
		return 0, err
	}
	return n, nil
}
