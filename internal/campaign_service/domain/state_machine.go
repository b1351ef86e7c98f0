package domain

import "fmt"

var campaignStatuses = []CampaignStatus{
	CampaignStatusPause,
	CampaignStatusStart,
	CampaignStatusAbort,
	CampaignStatusEnd,
}

// CanTransition reports whether an administrator may move a campaign from
// one status to another. Every pair of distinct known states is legal.
func CanTransition(from, to CampaignStatus) bool {
	return from.Valid() && to.Valid() && from != to
}

// AllowedTransitions lists the states reachable from from, in display order.
func AllowedTransitions(from CampaignStatus) []CampaignStatus {
	var out []CampaignStatus
	for _, to := range campaignStatuses {
		if CanTransition(from, to) {
			out = append(out, to)
		}
	}
	return out
}

// CheckTransition is CanTransition returning an error for callers.
func CheckTransition(from, to CampaignStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
