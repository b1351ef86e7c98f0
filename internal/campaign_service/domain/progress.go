package domain

import "github.com/google/uuid"

// Progress is a completion snapshot of one campaign.
type Progress struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Completed  int       `json:"completed"`
	Total      int       `json:"total"`
}

// Percent returns Completed/Total as a whole percentage, 0 for an empty campaign.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}
