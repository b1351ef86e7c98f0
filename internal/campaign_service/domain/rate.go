package domain

import (
	"math"
	"time"
)

// MaxClaimBudget caps a single tick's claim so a huge rate or a long tick
// cannot overflow the budget arithmetic.
const MaxClaimBudget = 1 << 20

// EffectiveRate returns the campaign frequency clamped by the account
// ceiling. A nil ceiling leaves the frequency unchanged.
func EffectiveRate(c *Campaign, accountMaxRate *int) int {
	if accountMaxRate != nil && *accountMaxRate < c.Frequency {
		return *accountMaxRate
	}
	return c.Frequency
}

// ClaimBudget is the number of subscribers an eligible campaign may claim in
// one tick of the given length at rate sends per minute. It never drops below
// one so slow campaigns on short ticks still progress, and never exceeds
// MaxClaimBudget.
func ClaimBudget(rate int, tick time.Duration) int {
	if rate <= 0 || tick <= 0 {
		return 1
	}
	if int64(rate) > math.MaxInt64/int64(tick) {
		return MaxClaimBudget
	}
	n := int64(rate) * int64(tick) / int64(time.Minute)
	switch {
	case n < 1:
		return 1
	case n > MaxClaimBudget:
		return MaxClaimBudget
	}
	return int(n)
}
