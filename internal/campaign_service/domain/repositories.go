package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CampaignRepository manages Campaign rows and the campaign/phonebook join.
type CampaignRepository interface {
	Create(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	// ListByStatus returns every campaign in status, phonebook IDs included.
	ListByStatus(ctx context.Context, status CampaignStatus) ([]*Campaign, error)
	// ListExpired returns campaigns whose expiration is at or before now and
	// whose status is not end.
	ListExpired(ctx context.Context, now time.Time) ([]*Campaign, error)
	// ListStartedForPhonebook returns start campaigns targeting phonebookID.
	ListStartedForPhonebook(ctx context.Context, phonebookID uuid.UUID) ([]*Campaign, error)
	// UpdateStatus moves a campaign from one status to another only if it is
	// still in from; ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to CampaignStatus) error
	AttachPhonebook(ctx context.Context, campaignID, phonebookID uuid.UUID) error
	// RecordImport stores the imported phonebook and refreshes total_contact.
	RecordImport(ctx context.Context, campaignID, phonebookID uuid.UUID, totalContact int) error
}

// SubscriberRepository is the persistent subscriber queue. ClaimPending is
// the only synchronization point between concurrent dispatch workers.
type SubscriberRepository interface {
	// Insert creates a pending subscriber; ErrDuplicateEntry if the
	// (contact, campaign) pair already exists.
	Insert(ctx context.Context, s *Subscriber) error
	// ClaimPending atomically moves up to limit pending, retry-eligible
	// subscribers of campaignID to in_progress and returns them.
	ClaimPending(ctx context.Context, campaignID uuid.UUID, limit int, now time.Time) ([]*Subscriber, error)
	// ReportOutcome applies ResolveOutcome to a claimed subscriber in one transaction.
	ReportOutcome(ctx context.Context, id uuid.UUID, success bool, messageID uuid.NullUUID, now time.Time) (*Subscriber, error)
	// RequeueStale returns in_progress rows last attempted before cutoff to pending.
	RequeueStale(ctx context.Context, cutoff, now time.Time) (int, error)
	// CancelPendingForContact cancels pending rows of contactID across campaigns.
	CancelPendingForContact(ctx context.Context, contactID uuid.UUID, now time.Time) (int, error)
	ListPending(ctx context.Context, campaignID uuid.UUID, limit int) ([]*Subscriber, error)
	CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[SubscriberStatus]int, error)
}

// ContactRepository is the query side of the phonebook directory.
type ContactRepository interface {
	// FindUnenrolledActiveContacts lists active contacts of the campaign's
	// phonebooks without a subscriber row in that campaign.
	FindUnenrolledActiveContacts(ctx context.Context, campaignID uuid.UUID) ([]*Contact, error)
	CountActiveForCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
	CountForCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

// AccountSettingsRepository looks up account level SMS settings.
type AccountSettingsRepository interface {
	// GetByAccountID returns ErrNotFound when the account has no settings row.
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*AccountSettings, error)
}
