package domain

import "time"

// EligibilityReport breaks IsRunning down into its five conditions.
type EligibilityReport struct {
	Started       bool // status is start
	AfterStart    bool // now >= StartingDate
	BeforeExpiry  bool // now <= ExpirationDate
	InDailyWindow bool
	ActiveWeekday bool
}

// Running reports whether every condition holds.
func (r EligibilityReport) Running() bool {
	return r.Started && r.AfterStart && r.BeforeExpiry && r.InDailyWindow && r.ActiveWeekday
}

// Reason names the first failing condition, or "" when running.
func (r EligibilityReport) Reason() string {
	switch {
	case !r.Started:
		return "not_started"
	case !r.AfterStart:
		return "before_start"
	case !r.BeforeExpiry:
		return "expired"
	case !r.InDailyWindow:
		return "outside_daily_window"
	case !r.ActiveWeekday:
		return "inactive_weekday"
	}
	return ""
}

// Eligibility evaluates c at now. Time of day and weekday are taken in now's
// location; callers convert the clock to the scheduling timezone first.
func Eligibility(c *Campaign, now time.Time) EligibilityReport {
	return EligibilityReport{
		Started:       c.Status == CampaignStatusStart,
		AfterStart:    !now.Before(c.StartingDate),
		BeforeExpiry:  !now.After(c.ExpirationDate),
		InDailyWindow: InDailyWindow(c.DailyStartTime, c.DailyStopTime, TimeOfDayOf(now)),
		ActiveWeekday: c.ActiveDays.Has(now.Weekday()),
	}
}

// IsRunning reports whether c may dispatch at now.
func IsRunning(c *Campaign, now time.Time) bool {
	return Eligibility(c, now).Running()
}

// IsExpired reports whether c went past its expiration without being ended.
func IsExpired(c *Campaign, now time.Time) bool {
	return !c.ExpirationDate.After(now) && c.Status != CampaignStatusEnd
}

// InDailyWindow reports whether t lies in [start, stop], both inclusive.
// A stop before start is an overnight window that wraps past midnight.
func InDailyWindow(start, stop, t TimeOfDay) bool {
	if start <= stop {
		return t >= start && t <= stop
	}
	return t >= start || t <= stop
}
