package domain

import (
	"crypto/rand"
	"math/big"
)

const (
	CampaignCodeLength   = 5
	campaignCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCampaignCode returns a short human-referenceable code. Uniqueness is
// enforced by the store; callers retry on ErrDuplicateEntry.
func GenerateCampaignCode() (string, error) {
	max := big.NewInt(int64(len(campaignCodeAlphabet)))
	buf := make([]byte, CampaignCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = campaignCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
