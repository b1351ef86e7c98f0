package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveRate(t *testing.T) {
	c := &Campaign{Frequency: 30}
	lower, higher := 12, 100

	assert.Equal(t, 30, EffectiveRate(c, nil))
	assert.Equal(t, 12, EffectiveRate(c, &lower))
	assert.Equal(t, 30, EffectiveRate(c, &higher))
	assert.Equal(t, 30, c.Frequency, "campaign config is not mutated")
}

func TestClaimBudget(t *testing.T) {
	assert.Equal(t, 10, ClaimBudget(10, time.Minute))
	assert.Equal(t, 5, ClaimBudget(10, 30*time.Second))
	assert.Equal(t, 600, ClaimBudget(60, 10*time.Minute))
	assert.Equal(t, 2, ClaimBudget(5, 25*time.Second), "floor(5*25/60)")
	assert.Equal(t, 1, ClaimBudget(1, 10*time.Second), "never starves")
	assert.Equal(t, 1, ClaimBudget(0, time.Minute))
	assert.Equal(t, 1, ClaimBudget(10, 0))
}

func TestClaimBudget_LargeRatesSaturate(t *testing.T) {
	assert.Equal(t, MaxClaimBudget, ClaimBudget(200_000_000, time.Minute), "product overflows int64")
	assert.Equal(t, MaxClaimBudget, ClaimBudget(math.MaxInt, time.Second))
	assert.Equal(t, MaxClaimBudget, ClaimBudget(MaxFrequency, 24*time.Hour))
	assert.Equal(t, MaxFrequency, ClaimBudget(MaxFrequency, time.Minute))
}
