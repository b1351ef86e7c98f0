package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrInvalidTransition is returned for a campaign status change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid campaign status transition")
	// ErrStatusConflict indicates the campaign status changed between read and write.
	ErrStatusConflict = errors.New("campaign status changed concurrently")
	// ErrSubscriberNotClaimed is returned when an outcome is reported for a subscriber that is not in progress.
	ErrSubscriberNotClaimed = errors.New("subscriber is not claimed")
	// ErrInvalidSchedule indicates a campaign schedule that fails validation.
	ErrInvalidSchedule = errors.New("invalid campaign schedule")
)
