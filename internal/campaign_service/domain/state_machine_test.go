package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	for _, from := range campaignStatuses {
		for _, to := range campaignStatuses {
			assert.Equal(t, from != to, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition("bogus", CampaignStatusStart))
	assert.False(t, CanTransition(CampaignStatusStart, "bogus"))
}

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t,
		[]CampaignStatus{CampaignStatusStart, CampaignStatusAbort, CampaignStatusEnd},
		AllowedTransitions(CampaignStatusPause))
	assert.Equal(t,
		[]CampaignStatus{CampaignStatusPause, CampaignStatusStart, CampaignStatusAbort},
		AllowedTransitions(CampaignStatusEnd))
	assert.Empty(t, AllowedTransitions("bogus"))
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(CampaignStatusAbort, CampaignStatusStart))
	assert.ErrorIs(t, CheckTransition(CampaignStatusStart, CampaignStatusStart), ErrInvalidTransition)
}
