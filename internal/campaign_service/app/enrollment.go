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

// EnrollmentResult counts what happened to a batch of contacts.
type EnrollmentResult struct {
	Enrolled     int `json:"enrolled"`
	Duplicates   int `json:"duplicates"`
	Unauthorized int `json:"unauthorized"`
	Failed       int `json:"failed"`
}

// Enrollment turns phonebook contacts into pending subscribers of the
// campaigns that target them.
type Enrollment struct {
	campaigns   domain.CampaignRepository
	subscribers domain.SubscriberRepository
	settings    domain.AccountSettingsRepository
	progress    *ProgressTracker
	logger      *slog.Logger
	now         func() time.Time
}

// NewEnrollment creates an Enrollment. progress may be nil.
func NewEnrollment(
	campaigns domain.CampaignRepository,
	subscribers domain.SubscriberRepository,
	settings domain.AccountSettingsRepository,
	progress *ProgressTracker,
	logger *slog.Logger,
) *Enrollment {
	return &Enrollment{
		campaigns:   campaigns,
		subscribers: subscribers,
		settings:    settings,
		progress:    progress,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// OnContactActivated enrolls contact into every started campaign that
// targets its phonebook. Enrolling twice is a no-op.
func (e *Enrollment) OnContactActivated(ctx context.Context, contact *domain.Contact) error {
	if !contact.Active() {
		e.logger.InfoContext(ctx, "Ignoring activation of inactive contact", "contact_id", contact.ID)
		return nil
	}
	campaigns, err := e.campaigns.ListStartedForPhonebook(ctx, contact.PhonebookID)
	if err != nil {
		return fmt.Errorf("list campaigns for phonebook %s: %w", contact.PhonebookID, err)
	}

	var errs []error
	var result EnrollmentResult
	for _, c := range campaigns {
		settings, err := authorizationSettings(ctx, e.settings, c.AccountID)
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to load account settings for enrollment", "campaign_id", c.ID, "account_id", c.AccountID, "error", err)
			errs = append(errs, err)
			continue
		}
		before := result.Enrolled
		if err := e.enroll(ctx, c, contact, settings, &result); err != nil {
			errs = append(errs, err)
		}
		if result.Enrolled > before {
			e.progress.Invalidate(ctx, c.ID)
		}
	}
	if len(campaigns) > 0 {
		e.logger.InfoContext(ctx, "Contact enrollment processed",
			"contact_id", contact.ID, "campaigns", len(campaigns),
			"enrolled", result.Enrolled, "duplicates", result.Duplicates, "unauthorized", result.Unauthorized)
	}
	return errors.Join(errs...)
}

// OnContactDeactivated cancels the contact's pending subscribers. Claimed
// subscribers are left for their outcome report.
func (e *Enrollment) OnContactDeactivated(ctx context.Context, contact *domain.Contact) error {
	n, err := e.subscribers.CancelPendingForContact(ctx, contact.ID, e.now())
	if err != nil {
		return fmt.Errorf("cancel pending subscribers of contact %s: %w", contact.ID, err)
	}
	if n > 0 {
		cancelledCounter.Add(float64(n))
		e.logger.InfoContext(ctx, "Cancelled pending subscribers of deactivated contact", "contact_id", contact.ID, "count", n)
	}
	return nil
}

// EnrollContacts enrolls a batch of contacts into c, looking up the
// account's authorization lists once. An account without settings
// authorizes none of them.
func (e *Enrollment) EnrollContacts(ctx context.Context, c *domain.Campaign, contacts []*domain.Contact) (EnrollmentResult, error) {
	var result EnrollmentResult
	settings, err := authorizationSettings(ctx, e.settings, c.AccountID)
	if err != nil {
		return result, err
	}
	var errs []error
	for _, contact := range contacts {
		if err := e.enroll(ctx, c, contact, settings, &result); err != nil {
			errs = append(errs, err)
		}
	}
	if result.Enrolled > 0 {
		e.progress.Invalidate(ctx, c.ID)
	}
	return result, errors.Join(errs...)
}

func (e *Enrollment) enroll(ctx context.Context, c *domain.Campaign, contact *domain.Contact, settings *domain.AccountSettings, result *EnrollmentResult) error {
	if !settings.IsAuthorized(contact.Number) {
		result.Unauthorized++
		enrollmentsCounter.WithLabelValues("unauthorized").Inc()
		e.logger.DebugContext(ctx, "Contact not authorized for account", "campaign_id", c.ID, "contact_id", contact.ID)
		return nil
	}

	sub := domain.NewSubscriber(uuid.New(), c.ID, contact, e.now())
	if err := e.subscribers.Insert(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			result.Duplicates++
			enrollmentsCounter.WithLabelValues("duplicate").Inc()
			return nil
		}
		result.Failed++
		enrollmentsCounter.WithLabelValues("error").Inc()
		e.logger.ErrorContext(ctx, "Failed to enroll contact", "campaign_id", c.ID, "contact_id", contact.ID, "error", err)
		return fmt.Errorf("enroll contact %s in campaign %s: %w", contact.ID, c.ID, err)
	}
	result.Enrolled++
	enrollmentsCounter.WithLabelValues("enrolled").Inc()
	return nil
}
