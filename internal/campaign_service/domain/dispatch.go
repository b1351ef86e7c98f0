package domain

import (
	"time"

	"github.com/google/uuid"
)

// DispatchJob is handed to the transport layer for every claimed subscriber.
type DispatchJob struct {
	SubscriberID uuid.UUID `json:"subscriber_id"`
	CampaignID   uuid.UUID `json:"campaign_id"`
	CampaignCode string    `json:"campaign_code"`
	ContactID    uuid.UUID `json:"contact_id"`
	Recipient    string    `json:"recipient"`
	GatewayID    uuid.UUID `json:"gateway_id"`
	TextMessage  string    `json:"text_message,omitempty"`
	ExtraData    string    `json:"extra_data,omitempty"`
	Attempt      int       `json:"attempt"`
	ClaimedAt    time.Time `json:"claimed_at"`
}

// NewDispatchJob builds the job for a freshly claimed subscriber.
func NewDispatchJob(c *Campaign, s *Subscriber) DispatchJob {
	return DispatchJob{
		SubscriberID: s.ID,
		CampaignID:   c.ID,
		CampaignCode: c.Code,
		ContactID:    s.ContactID,
		Recipient:    s.DuplicateContact,
		GatewayID:    c.GatewayID,
		TextMessage:  c.TextMessage,
		ExtraData:    c.ExtraData,
		Attempt:      s.CountAttempt,
		ClaimedAt:    s.LastAttempt.Time,
	}
}

// OutcomeReport is what the transport layer sends back after an attempt.
type OutcomeReport struct {
	SubscriberID uuid.UUID     `json:"subscriber_id"`
	Success      bool          `json:"success"`
	MessageID    uuid.NullUUID `json:"message_id"`
}
