package local

import (
	"context"
	"testing"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressCache(t *testing.T) {
	ctx := context.Background()
	c := NewProgressCache(time.Minute)
	id := uuid.New()

	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.Progress{CampaignID: id, Completed: 4, Total: 10}
	require.NoError(t, c.Set(ctx, want))

	got, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Invalidate(ctx, id))
	_, ok, _ = c.Get(ctx, id)
	assert.False(t, ok)
}

func TestProgressCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewProgressCache(20 * time.Millisecond)
	id := uuid.New()

	require.NoError(t, c.Set(ctx, domain.Progress{CampaignID: id, Total: 1}))
	time.Sleep(40 * time.Millisecond)

	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
