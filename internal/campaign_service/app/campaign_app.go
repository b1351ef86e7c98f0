package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
)

const maxCodeAttempts = 5

// CreateCampaignParams carries the fields of a new campaign. Nil pointers
// take the model defaults.
type CreateCampaignParams struct {
	AccountID   uuid.UUID
	GatewayID   uuid.UUID
	Name        string
	Description string
	TextMessage string
	ExtraData   string

	StartingDate   *time.Time
	ExpirationDate *time.Time
	DailyStartTime *domain.TimeOfDay
	DailyStopTime  *domain.TimeOfDay
	ActiveDays     *domain.WeekdayMask

	Frequency     *int
	MaxRetry      *int
	IntervalRetry *int

	PhonebookIDs []uuid.UUID
}

// ImportResult is returned by ImportPhonebook.
type ImportResult struct {
	CampaignID   uuid.UUID `json:"campaign_id"`
	PhonebookID  uuid.UUID `json:"phonebook_id"`
	TotalContact int       `json:"total_contact"`
	EnrollmentResult
}

// CampaignApplication is the administrative entry point for campaigns.
type CampaignApplication struct {
	campaigns  domain.CampaignRepository
	contacts   domain.ContactRepository
	enrollment *Enrollment
	progress   *ProgressTracker
	logger     *slog.Logger
	now        func() time.Time
	newCode    func() (string, error)
}

// NewCampaignApplication creates a CampaignApplication.
func NewCampaignApplication(
	campaigns domain.CampaignRepository,
	contacts domain.ContactRepository,
	enrollment *Enrollment,
	progress *ProgressTracker,
	logger *slog.Logger,
) *CampaignApplication {
	return &CampaignApplication{
		campaigns:  campaigns,
		contacts:   contacts,
		enrollment: enrollment,
		progress:   progress,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newCode:    domain.GenerateCampaignCode,
	}
}

// CreateCampaign validates and stores a paused campaign under a fresh code.
func (a *CampaignApplication) CreateCampaign(ctx context.Context, p CreateCampaignParams) (*domain.Campaign, error) {
	now := a.now()
	c := domain.NewCampaign(uuid.New(), p.AccountID, p.GatewayID, "", p.Name, now)
	c.Description = p.Description
	c.TextMessage = p.TextMessage
	c.ExtraData = p.ExtraData
	c.PhonebookIDs = p.PhonebookIDs

	if p.StartingDate != nil {
		c.StartingDate = p.StartingDate.UTC()
		c.ExpirationDate = c.StartingDate.AddDate(0, 1, 0)
	}
	if p.ExpirationDate != nil {
		c.ExpirationDate = p.ExpirationDate.UTC()
	}
	if p.DailyStartTime != nil {
		c.DailyStartTime = *p.DailyStartTime
	}
	if p.DailyStopTime != nil {
		c.DailyStopTime = *p.DailyStopTime
	}
	if p.ActiveDays != nil {
		c.ActiveDays = *p.ActiveDays
	}
	if p.Frequency != nil {
		c.Frequency = *p.Frequency
	}
	if p.MaxRetry != nil {
		c.MaxRetry = *p.MaxRetry
	}
	if p.IntervalRetry != nil {
		c.IntervalRetry = *p.IntervalRetry
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		code, err := a.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate campaign code: %w", err)
		}
		c.Code = code
		err = a.campaigns.Create(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateEntry) || attempt == maxCodeAttempts {
			return nil, fmt.Errorf("create campaign: %w", err)
		}
		a.logger.WarnContext(ctx, "Campaign code collision, retrying", "code", code, "attempt", attempt)
	}

	a.logger.InfoContext(ctx, "Campaign created", "campaign_id", c.ID, "code", c.Code, "account_id", c.AccountID)
	return c, nil
}

// GetCampaign returns domain.ErrNotFound for an unknown id.
func (a *CampaignApplication) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return a.campaigns.GetByID(ctx, id)
}

// ChangeStatus moves a campaign to status to. The write only succeeds if the
// campaign still has the status that was read.
func (a *CampaignApplication) ChangeStatus(ctx context.Context, id uuid.UUID, to domain.CampaignStatus) (*domain.Campaign, error) {
	c, err := a.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(c.Status, to); err != nil {
		return nil, err
	}
	if err := a.campaigns.UpdateStatus(ctx, id, c.Status, to); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Campaign status changed", "campaign_id", id, "from", c.Status, "to", to)
	c.Status = to
	c.UpdatedAt = a.now()
	return c, nil
}

// ImportPhonebook attaches a phonebook to a campaign and enrolls its active
// contacts that are not subscribers yet.
func (a *CampaignApplication) ImportPhonebook(ctx context.Context, campaignID, phonebookID uuid.UUID) (*ImportResult, error) {
	c, err := a.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := a.campaigns.AttachPhonebook(ctx, campaignID, phonebookID); err != nil && !errors.Is(err, domain.ErrDuplicateEntry) {
		return nil, fmt.Errorf("attach phonebook: %w", err)
	}

	contacts, err := a.contacts.FindUnenrolledActiveContacts(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("find unenrolled contacts: %w", err)
	}
	enrolled, enrollErr := a.enrollment.EnrollContacts(ctx, c, contacts)

	total, err := a.contacts.CountForCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("count campaign contacts: %w", err)
	}
	if err := a.campaigns.RecordImport(ctx, campaignID, phonebookID, total); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	a.logger.InfoContext(ctx, "Phonebook imported", "campaign_id", campaignID, "phonebook_id", phonebookID,
		"candidates", len(contacts), "enrolled", enrolled.Enrolled, "total_contact", total)
	return &ImportResult{
		CampaignID:       campaignID,
		PhonebookID:      phonebookID,
		TotalContact:     total,
		EnrollmentResult: enrolled,
	}, enrollErr
}

// Progress returns the campaign's progress, domain.ErrNotFound for an unknown id.
func (a *CampaignApplication) Progress(ctx context.Context, id uuid.UUID) (domain.Progress, error) {
	if _, err := a.campaigns.GetByID(ctx, id); err != nil {
		return domain.Progress{}, err
	}
	return a.progress.Progress(ctx, id)
}
