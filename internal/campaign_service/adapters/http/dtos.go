package http

import (
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
)

// --- Request DTOs ---

// CreateCampaignRequestDTO creates a campaign. Omitted schedule and retry
// fields take their defaults.
type CreateCampaignRequestDTO struct {
	AccountID   string `json:"account_id" validate:"required,uuid"`
	GatewayID   string `json:"gateway_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=1024"`
	TextMessage string `json:"text_message,omitempty"`
	ExtraData   string `json:"extra_data,omitempty"`

	StartingDate   *time.Time `json:"starting_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	DailyStartTime *string    `json:"daily_start_time,omitempty"` // HH:MM[:SS]
	DailyStopTime  *string    `json:"daily_stop_time,omitempty"`
	ActiveDays     *int       `json:"active_days,omitempty" validate:"omitempty,min=1,max=127"` // bit 0 = Monday

	Frequency     *int `json:"frequency,omitempty" validate:"omitempty,min=0,max=100000"`
	MaxRetry      *int `json:"max_retry,omitempty" validate:"omitempty,min=0,max=100"`
	IntervalRetry *int `json:"interval_retry,omitempty" validate:"omitempty,min=0,max=604800"`

	PhonebookIDs []string `json:"phonebook_ids,omitempty" validate:"omitempty,dive,uuid"`
}

type ChangeStatusRequestDTO struct {
	Status string `json:"status" validate:"required,oneof=pause start abort end"`
}

type ClaimRequestDTO struct {
	Limit int `json:"limit" validate:"required,min=1,max=1000"`
}

// ReportOutcomeRequestDTO carries a dispatch worker's send result.
type ReportOutcomeRequestDTO struct {
	Success   *bool  `json:"success" validate:"required"`
	MessageID string `json:"message_id,omitempty" validate:"omitempty,uuid"`
}

type RequeueStaleRequestDTO struct {
	OlderThanSeconds int `json:"older_than_seconds" validate:"required,min=1"`
}

// --- Response DTOs ---

// CampaignDTO represents a campaign in API responses. Daily times are
// rendered as HH:MM:SS.
type CampaignDTO struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	AccountID      string    `json:"account_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status"`
	StartingDate   time.Time `json:"starting_date"`
	ExpirationDate time.Time `json:"expiration_date"`
	DailyStartTime string    `json:"daily_start_time"`
	DailyStopTime  string    `json:"daily_stop_time"`
	ActiveDays     int       `json:"active_days"`
	Frequency      int       `json:"frequency"`
	MaxRetry       int       `json:"max_retry"`
	IntervalRetry  int       `json:"interval_retry"`
	GatewayID      string    `json:"gateway_id"`
	TextMessage    string    `json:"text_message,omitempty"`
	ExtraData      string    `json:"extra_data,omitempty"`
	PhonebookIDs   []string  `json:"phonebook_ids"`
	TotalContact   int       `json:"total_contact"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type SubscriberDTO struct {
	ID           string     `json:"id"`
	CampaignID   string     `json:"campaign_id"`
	ContactID    string     `json:"contact_id"`
	Recipient    string     `json:"recipient"`
	Status       string     `json:"status"`
	CountAttempt int        `json:"count_attempt"`
	LastAttempt  *time.Time `json:"last_attempt,omitempty"`
	MessageID    string     `json:"message_id,omitempty"`
}

type SubscriberListResponseDTO struct {
	Subscribers []SubscriberDTO `json:"subscribers"`
	Count       int             `json:"count"`
}

type ProgressResponseDTO struct {
	CampaignID string `json:"campaign_id"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percent    int    `json:"percent"`
}

type RequeueStaleResponseDTO struct {
	Requeued int `json:"requeued"`
}

func toCampaignDTO(c *domain.Campaign) CampaignDTO {
	phonebooks := make([]string, 0, len(c.PhonebookIDs))
	for _, id := range c.PhonebookIDs {
		phonebooks = append(phonebooks, id.String())
	}
	return CampaignDTO{
		ID:             c.ID.String(),
		Code:           c.Code,
		AccountID:      c.AccountID.String(),
		Name:           c.Name,
		Description:    c.Description,
		Status:         string(c.Status),
		StartingDate:   c.StartingDate,
		ExpirationDate: c.ExpirationDate,
		DailyStartTime: c.DailyStartTime.String(),
		DailyStopTime:  c.DailyStopTime.String(),
		ActiveDays:     int(c.ActiveDays),
		Frequency:      c.Frequency,
		MaxRetry:       c.MaxRetry,
		IntervalRetry:  c.IntervalRetry,
		GatewayID:      c.GatewayID.String(),
		TextMessage:    c.TextMessage,
		ExtraData:      c.ExtraData,
		PhonebookIDs:   phonebooks,
		TotalContact:   c.TotalContact,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toSubscriberDTO(s *domain.Subscriber) SubscriberDTO {
	dto := SubscriberDTO{
		ID:           s.ID.String(),
		CampaignID:   s.CampaignID.String(),
		ContactID:    s.ContactID.String(),
		Recipient:    s.DuplicateContact,
		Status:       string(s.Status),
		CountAttempt: s.CountAttempt,
	}
	if s.LastAttempt.Valid {
		t := s.LastAttempt.Time
		dto.LastAttempt = &t
	}
	if s.MessageID.Valid {
		dto.MessageID = s.MessageID.UUID.String()
	}
	return dto
}

func toSubscriberList(subs []*domain.Subscriber) SubscriberListResponseDTO {
	out := SubscriberListResponseDTO{Subscribers: make([]SubscriberDTO, 0, len(subs)), Count: len(subs)}
	for _, s := range subs {
		out.Subscribers = append(out.Subscribers, toSubscriberDTO(s))
	}
	return out
}
