package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusPause CampaignStatus = "pause"
	CampaignStatusStart CampaignStatus = "start"
	CampaignStatusAbort CampaignStatus = "abort"
	CampaignStatusEnd   CampaignStatus = "end"
)

// Valid reports whether s is one of the four known states.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusPause, CampaignStatusStart, CampaignStatusAbort, CampaignStatusEnd:
		return true
	}
	return false
}

// TimeOfDay is a wall-clock time without a date, in seconds since midnight.
type TimeOfDay int

const (
	secondsPerDay = 24 * 60 * 60

	StartOfDay TimeOfDay = 0
	EndOfDay   TimeOfDay = secondsPerDay - 1 // 23:59:59
)

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf extracts the clock component of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("time of day %q: expected HH:MM[:SS]", v)
	}
	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("time of day %q: bad component %q", v, p)
		}
		vals[i] = n
	}
	return NewTimeOfDay(vals[0], vals[1], vals[2]), nil
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, (int(t)%3600)/60, int(t)%60)
}

// WeekdayMask holds one active flag per weekday; bit 0 is Monday, bit 6 is Sunday.
type WeekdayMask uint8

const (
	Monday WeekdayMask = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	Weekdays WeekdayMask = Monday | Tuesday | Wednesday | Thursday | Friday
	AllDays  WeekdayMask = Weekdays | Saturday | Sunday
)

// MaskOf returns the mask bit for a time.Weekday.
func MaskOf(d time.Weekday) WeekdayMask {
	// time.Weekday starts the week on Sunday (0).
	return WeekdayMask(1) << ((uint(d) + 6) % 7)
}

// Has reports whether d is flagged active.
func (m WeekdayMask) Has(d time.Weekday) bool {
	return m&MaskOf(d) != 0
}

// Campaign is a scheduled bulk-SMS sending task.
type Campaign struct {
	ID          uuid.UUID      `json:"id"`
	Code        string         `json:"code"`
	AccountID   uuid.UUID      `json:"account_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      CampaignStatus `json:"status"`

	StartingDate   time.Time   `json:"starting_date"`
	ExpirationDate time.Time   `json:"expiration_date"`
	DailyStartTime TimeOfDay   `json:"daily_start_time"`
	DailyStopTime  TimeOfDay   `json:"daily_stop_time"`
	ActiveDays     WeekdayMask `json:"active_days"`

	Frequency     int `json:"frequency"`      // sends per minute
	MaxRetry      int `json:"max_retry"`      // retries after the first attempt
	IntervalRetry int `json:"interval_retry"` // seconds between attempts

	GatewayID   uuid.UUID `json:"gateway_id"`
	TextMessage string    `json:"text_message,omitempty"`
	ExtraData   string    `json:"extra_data,omitempty"`

	PhonebookIDs       []uuid.UUID `json:"phonebook_ids,omitempty"`
	ImportedPhonebooks []uuid.UUID `json:"imported_phonebooks,omitempty"`
	TotalContact       int         `json:"total_contact"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	DefaultFrequency     = 10
	DefaultMaxRetry      = 0
	DefaultIntervalRetry = 300

	// MaxFrequency is the highest configurable send rate, per minute.
	MaxFrequency = 100_000
)

// NewCampaign creates a paused campaign with the default schedule: active all
// day on every weekday, from now for one month.
func NewCampaign(id, accountID, gatewayID uuid.UUID, code, name string, now time.Time) *Campaign {
	return &Campaign{
		ID:             id,
		Code:           code,
		AccountID:      accountID,
		Name:           name,
		Status:         CampaignStatusPause,
		StartingDate:   now,
		ExpirationDate: now.AddDate(0, 1, 0),
		DailyStartTime: StartOfDay,
		DailyStopTime:  EndOfDay,
		ActiveDays:     AllDays,
		Frequency:      DefaultFrequency,
		MaxRetry:       DefaultMaxRetry,
		IntervalRetry:  DefaultIntervalRetry,
		GatewayID:      gatewayID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RetryInterval returns IntervalRetry as a duration.
func (c *Campaign) RetryInterval() time.Duration {
	return time.Duration(c.IntervalRetry) * time.Second
}

// Validate checks the configuration-time invariants. An overnight daily
// window (stop before start) is valid.
func (c *Campaign) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	case !c.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSchedule, c.Status)
	case !c.ExpirationDate.After(c.StartingDate):
		return fmt.Errorf("%w: expiration must be after start", ErrInvalidSchedule)
	case !c.DailyStartTime.Valid() || !c.DailyStopTime.Valid():
		return fmt.Errorf("%w: daily window out of range", ErrInvalidSchedule)
	case c.ActiveDays&AllDays == 0:
		return fmt.Errorf("%w: no active weekday", ErrInvalidSchedule)
	case c.Frequency < 0 || c.MaxRetry < 0 || c.IntervalRetry < 0:
		return fmt.Errorf("%w: frequency and retry settings must not be negative", ErrInvalidSchedule)
	case c.Frequency > MaxFrequency:
		return fmt.Errorf("%w: frequency above %d per minute", ErrInvalidSchedule, MaxFrequency)
	}
	return nil
}
