package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContactStatus mirrors the phonebook directory's contact status.
type ContactStatus string

const (
	ContactStatusActive   ContactStatus = "active"
	ContactStatusInactive ContactStatus = "inactive"
)

// Contact is the read model of a phonebook entry.
type Contact struct {
	ID          uuid.UUID     `json:"id"`
	PhonebookID uuid.UUID     `json:"phonebook_id"`
	Number      string        `json:"number"`
	FirstName   string        `json:"first_name,omitempty"`
	LastName    string        `json:"last_name,omitempty"`
	Email       string        `json:"email,omitempty"`
	Status      ContactStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Active reports whether the contact may be enrolled.
func (c *Contact) Active() bool {
	return c.Status == ContactStatusActive
}

// ContactEventType names a contact lifecycle event emitted by the phonebook directory.
type ContactEventType string

const (
	EventContactActivated   ContactEventType = "contact.activated"
	EventContactDeactivated ContactEventType = "contact.deactivated"
)

// ContactEvent is the payload published on the contact events subject.
type ContactEvent struct {
	Type       ContactEventType `json:"type"`
	Contact    Contact          `json:"contact"`
	OccurredAt time.Time        `json:"occurred_at"`
}
