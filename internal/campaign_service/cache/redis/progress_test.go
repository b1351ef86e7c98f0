//go:build e2e

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type ProgressCacheTestSuite struct {
	suite.Suite
	client *redis.Client
	cache  *ProgressCache
}

func (s *ProgressCacheTestSuite) SetupSuite() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	s.client = redis.NewClient(&redis.Options{Addr: addr})
	if err := s.client.Ping(context.Background()).Err(); err != nil {
		s.T().Skipf("redis not reachable at %s: %v", addr, err)
	}
	s.cache = NewProgressCache(s.client, time.Second)
}

func (s *ProgressCacheTestSuite) TearDownSuite() {
	s.client.Close()
}

func (s *ProgressCacheTestSuite) TestRoundTripAndInvalidate() {
	ctx := context.Background()
	id := uuid.New()

	_, ok, err := s.cache.Get(ctx, id)
	s.NoError(err)
	s.False(ok)

	want := domain.Progress{CampaignID: id, Completed: 3, Total: 9}
	s.NoError(s.cache.Set(ctx, want))

	got, ok, err := s.cache.Get(ctx, id)
	s.NoError(err)
	s.True(ok)
	s.Equal(want, got)

	s.NoError(s.cache.Invalidate(ctx, id))
	_, ok, err = s.cache.Get(ctx, id)
	s.NoError(err)
	s.False(ok)
}

func (s *ProgressCacheTestSuite) TestExpires() {
	ctx := context.Background()
	id := uuid.New()
	s.NoError(s.cache.Set(ctx, domain.Progress{CampaignID: id, Total: 1}))

	time.Sleep(1100 * time.Millisecond)
	_, ok, err := s.cache.Get(ctx, id)
	s.NoError(err)
	s.False(ok)
}

func TestProgressCacheTestSuite(t *testing.T) {
	suite.Run(t, new(ProgressCacheTestSuite))
}
