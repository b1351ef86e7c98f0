package domain

import (
	"strings"

	"github.com/google/uuid"
)

// AccountSettings is the read model of the owning account's SMS settings.
type AccountSettings struct {
	AccountID       uuid.UUID `json:"account_id"`
	SMSMaxFrequency *int      `json:"sms_max_frequency,omitempty"` // nil means no ceiling
	Whitelist       []string  `json:"whitelist,omitempty"`         // number prefixes
	Blacklist       []string  `json:"blacklist,omitempty"`         // number prefixes
}

// IsAuthorized reports whether number may be contacted under these settings.
// The blacklist wins over the whitelist; an empty whitelist allows everything
// not blacklisted. Nil settings authorize no number: an account without
// settings has no profile to send on behalf of.
func (s *AccountSettings) IsAuthorized(number string) bool {
	if s == nil {
		return false
	}
	n := normalizeNumber(number)
	for _, p := range s.Blacklist {
		if p = normalizeNumber(p); p != "" && strings.HasPrefix(n, p) {
			return false
		}
	}
	if len(s.Whitelist) == 0 {
		return true
	}
	for _, p := range s.Whitelist {
		if p = normalizeNumber(p); p != "" && strings.HasPrefix(n, p) {
			return true
		}
	}
	return false
}

func normalizeNumber(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "+")
	return strings.TrimLeft(v, "0")
}
