package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory CampaignRepository, SubscriberRepository and
// ContactRepository. Every claim runs under one lock, the same guarantee
// FOR UPDATE SKIP LOCKED gives the Postgres claim.
type memStore struct {
	mu          sync.Mutex
	campaigns   map[uuid.UUID]*domain.Campaign
	subscribers map[uuid.UUID]*domain.Subscriber
	contacts    map[uuid.UUID]*domain.Contact
}

func newMemStore() *memStore {
	return &memStore{
		campaigns:   make(map[uuid.UUID]*domain.Campaign),
		subscribers: make(map[uuid.UUID]*domain.Subscriber),
		contacts:    make(map[uuid.UUID]*domain.Contact),
	}
}

func copyCampaign(c *domain.Campaign) *domain.Campaign {
	cp := *c
	cp.PhonebookIDs = append([]uuid.UUID(nil), c.PhonebookIDs...)
	cp.ImportedPhonebooks = append([]uuid.UUID(nil), c.ImportedPhonebooks...)
	return &cp
}

func copySubscriber(s *domain.Subscriber) *domain.Subscriber {
	cp := *s
	return &cp
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// --- CampaignRepository ---

func (m *memStore) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.campaigns {
		if existing.ID == c.ID || existing.Code == c.Code {
			return domain.ErrDuplicateEntry
		}
	}
	m.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyCampaign(c), nil
}

func (m *memStore) ListByStatus(_ context.Context, status domain.CampaignStatus) ([]*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range m.campaigns {
		if c.Status == status {
			out = append(out, copyCampaign(c))
		}
	}
	return out, nil
}

func (m *memStore) ListExpired(_ context.Context, now time.Time) ([]*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range m.campaigns {
		if domain.IsExpired(c, now) {
			out = append(out, copyCampaign(c))
		}
	}
	return out, nil
}

func (m *memStore) ListStartedForPhonebook(_ context.Context, phonebookID uuid.UUID) ([]*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range m.campaigns {
		if c.Status == domain.CampaignStatusStart && containsID(c.PhonebookIDs, phonebookID) {
			out = append(out, copyCampaign(c))
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != from {
		return domain.ErrStatusConflict
	}
	c.Status = to
	return nil
}

func (m *memStore) AttachPhonebook(_ context.Context, campaignID, phonebookID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return domain.ErrNotFound
	}
	if containsID(c.PhonebookIDs, phonebookID) {
		return domain.ErrDuplicateEntry
	}
	c.PhonebookIDs = append(c.PhonebookIDs, phonebookID)
	return nil
}

func (m *memStore) RecordImport(_ context.Context, campaignID, phonebookID uuid.UUID, totalContact int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return domain.ErrNotFound
	}
	if !containsID(c.ImportedPhonebooks, phonebookID) {
		c.ImportedPhonebooks = append(c.ImportedPhonebooks, phonebookID)
	}
	c.TotalContact = totalContact
	return nil
}

// --- SubscriberRepository ---

func (m *memStore) Insert(_ context.Context, s *domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subscribers {
		if existing.ContactID == s.ContactID && existing.CampaignID == s.CampaignID {
			return domain.ErrDuplicateEntry
		}
	}
	m.subscribers[s.ID] = copySubscriber(s)
	return nil
}

func (m *memStore) ClaimPending(_ context.Context, campaignID uuid.UUID, limit int, now time.Time) ([]*domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return nil, nil
	}

	var candidates []*domain.Subscriber
	for _, s := range m.subscribers {
		if s.CampaignID == campaignID && s.RetryEligible(c.RetryInterval(), now) {
			candidates = append(candidates, s)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.LastAttempt.Valid != b.LastAttempt.Valid {
			return !a.LastAttempt.Valid
		}
		if a.LastAttempt.Valid && !a.LastAttempt.Time.Equal(b.LastAttempt.Time) {
			return a.LastAttempt.Time.Before(b.LastAttempt.Time)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*domain.Subscriber, 0, len(candidates))
	for _, s := range candidates {
		s.Status = domain.SubscriberStatusInProgress
		s.LastAttempt = sql.NullTime{Time: now, Valid: true}
		s.CountAttempt++
		s.UpdatedAt = now
		out = append(out, copySubscriber(s))
	}
	return out, nil
}

func (m *memStore) ReportOutcome(_ context.Context, id uuid.UUID, success bool, messageID uuid.NullUUID, now time.Time) (*domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscribers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := m.campaigns[s.CampaignID]
	next, err := domain.ResolveOutcome(s.Status, s.CountAttempt, c.MaxRetry, success)
	if err != nil {
		return nil, err
	}
	s.Status = next
	if messageID.Valid {
		s.MessageID = messageID
	}
	s.UpdatedAt = now
	return copySubscriber(s), nil
}

func (m *memStore) RequeueStale(_ context.Context, cutoff, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subscribers {
		if s.Status == domain.SubscriberStatusInProgress && s.LastAttempt.Valid && s.LastAttempt.Time.Before(cutoff) {
			s.Status = domain.SubscriberStatusPending
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *memStore) CancelPendingForContact(_ context.Context, contactID uuid.UUID, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subscribers {
		if s.ContactID == contactID && s.Status == domain.SubscriberStatusPending {
			s.Status = domain.SubscriberStatusCancelled
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListPending(_ context.Context, campaignID uuid.UUID, limit int) ([]*domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Subscriber
	for _, s := range m.subscribers {
		if s.CampaignID == campaignID && s.Status == domain.SubscriberStatusPending && len(out) < limit {
			out = append(out, copySubscriber(s))
		}
	}
	return out, nil
}

func (m *memStore) CountByStatus(_ context.Context, campaignID uuid.UUID) (map[domain.SubscriberStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.SubscriberStatus]int)
	for _, s := range m.subscribers {
		if s.CampaignID == campaignID {
			out[s.Status]++
		}
	}
	return out, nil
}

// --- ContactRepository ---

func (m *memStore) campaignContacts(campaignID uuid.UUID) []*domain.Contact {
	c, ok := m.campaigns[campaignID]
	if !ok {
		return nil
	}
	var out []*domain.Contact
	for _, ct := range m.contacts {
		if containsID(c.PhonebookIDs, ct.PhonebookID) {
			out = append(out, ct)
		}
	}
	return out
}

func (m *memStore) FindUnenrolledActiveContacts(_ context.Context, campaignID uuid.UUID) ([]*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	enrolled := make(map[uuid.UUID]bool)
	for _, s := range m.subscribers {
		if s.CampaignID == campaignID {
			enrolled[s.ContactID] = true
		}
	}
	var out []*domain.Contact
	for _, ct := range m.campaignContacts(campaignID) {
		if ct.Active() && !enrolled[ct.ID] {
			cp := *ct
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CountActiveForCampaign(_ context.Context, campaignID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ct := range m.campaignContacts(campaignID) {
		if ct.Active() {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountForCampaign(_ context.Context, campaignID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.campaignContacts(campaignID)), nil
}

// --- fixtures ---

func (m *memStore) putCampaign(c *domain.Campaign) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = copyCampaign(c)
}

func (m *memStore) putContact(ct *domain.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ct
	m.contacts[ct.ID] = &cp
}

func (m *memStore) subscriber(id uuid.UUID) *domain.Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySubscriber(m.subscribers[id])
}

func (m *memStore) campaign(id uuid.UUID) *domain.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCampaign(m.campaigns[id])
}

// seedPending enrolls n fresh contacts of a new phonebook into c.
func (m *memStore) seedPending(c *domain.Campaign, n int, now time.Time) []uuid.UUID {
	pb := uuid.New()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID].PhonebookIDs = append(m.campaigns[c.ID].PhonebookIDs, pb)
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		ct := &domain.Contact{ID: uuid.New(), PhonebookID: pb, Number: fmt.Sprintf("2547%08d", i), Status: domain.ContactStatusActive}
		m.contacts[ct.ID] = ct
		s := domain.NewSubscriber(uuid.New(), c.ID, ct, now.Add(time.Duration(i)*time.Millisecond))
		m.subscribers[s.ID] = s
		ids = append(ids, s.ID)
	}
	return ids
}

// --- mocks ---

type MockAccountSettingsRepository struct {
	mock.Mock
}

func (m *MockAccountSettingsRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.AccountSettings, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountSettings), args.Error(1)
}

// openSettings returns empty authorization lists for every account.
func openSettings() *MockAccountSettingsRepository {
	m := new(MockAccountSettingsRepository)
	m.On("GetByAccountID", mock.Anything, mock.Anything).Return(&domain.AccountSettings{}, nil)
	return m
}

func noSettings() *MockAccountSettingsRepository {
	m := new(MockAccountSettingsRepository)
	m.On("GetByAccountID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	return m
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// fakeProgressCache is a map-backed ProgressCache without expiry.
type fakeProgressCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]domain.Progress
	invalidated int
}

func newFakeProgressCache() *fakeProgressCache {
	return &fakeProgressCache{entries: make(map[uuid.UUID]domain.Progress)}
}

func (f *fakeProgressCache) Get(_ context.Context, id uuid.UUID) (domain.Progress, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.entries[id]
	return p, ok, nil
}

func (f *fakeProgressCache) Set(_ context.Context, p domain.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[p.CampaignID] = p
	return nil
}

func (f *fakeProgressCache) Invalidate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	f.invalidated++
	return nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tuesday0905 is Tuesday 2024-01-02 09:05 UTC.
var tuesday0905 = time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)

func startedCampaign(now time.Time) *domain.Campaign {
	c := domain.NewCampaign(uuid.New(), uuid.New(), uuid.New(), uuid.NewString()[:5], "test campaign", now.AddDate(0, 0, -1))
	c.Status = domain.CampaignStatusStart
	return c
}
