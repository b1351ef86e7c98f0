package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SubscriberStatus is the dispatch state of one contact within one campaign.
type SubscriberStatus string

const (
	SubscriberStatusPending    SubscriberStatus = "pending"
	SubscriberStatusInProgress SubscriberStatus = "in_progress" // claimed by a dispatch worker
	SubscriberStatusComplete   SubscriberStatus = "complete"
	SubscriberStatusFailed     SubscriberStatus = "failed" // retries exhausted
	SubscriberStatusCancelled  SubscriberStatus = "cancelled"
)

// Terminal reports whether no further transition is expected from s.
func (s SubscriberStatus) Terminal() bool {
	return s == SubscriberStatusComplete || s == SubscriberStatusFailed || s == SubscriberStatusCancelled
}

// Subscriber is the per-contact queue entry of a campaign.
// (ContactID, CampaignID) is unique in the store.
type Subscriber struct {
	ID               uuid.UUID        `json:"id"`
	CampaignID       uuid.UUID        `json:"campaign_id"`
	ContactID        uuid.UUID        `json:"contact_id"`
	MessageID        uuid.NullUUID    `json:"message_id"`
	DuplicateContact string           `json:"duplicate_contact"`
	Status           SubscriberStatus `json:"status"`
	CountAttempt     int              `json:"count_attempt"`
	LastAttempt      sql.NullTime     `json:"last_attempt"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewSubscriber creates a pending subscriber for contact in campaignID.
func NewSubscriber(id, campaignID uuid.UUID, contact *Contact, now time.Time) *Subscriber {
	return &Subscriber{
		ID:               id,
		CampaignID:       campaignID,
		ContactID:        contact.ID,
		DuplicateContact: contact.Number,
		Status:           SubscriberStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// RetryEligible reports whether a pending subscriber may be claimed at now.
func (s *Subscriber) RetryEligible(retryInterval time.Duration, now time.Time) bool {
	if s.Status != SubscriberStatusPending {
		return false
	}
	return !s.LastAttempt.Valid || !s.LastAttempt.Time.Add(retryInterval).After(now)
}

// ResolveOutcome decides the status that follows a reported dispatch outcome
// for a claimed subscriber. maxRetry counts retries after the first attempt,
// so a subscriber fails for good once countAttempt exceeds it.
func ResolveOutcome(current SubscriberStatus, countAttempt, maxRetry int, success bool) (SubscriberStatus, error) {
	if current != SubscriberStatusInProgress {
		return current, ErrSubscriberNotClaimed
	}
	if success {
		return SubscriberStatusComplete, nil
	}
	if countAttempt <= maxRetry {
		return SubscriberStatusPending, nil
	}
	return SubscriberStatusFailed, nil
}
