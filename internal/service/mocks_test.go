package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/llm"
	"github.com/haven-app/haven-api/internal/payment"
	"github.com/stretchr/testify/mock"
)

// fakeUserStore is an in-memory UserRepository whose conditional updates
// hold the same guarantees as the real store: each check-and-mutate happens
// under one lock acquisition, so concurrent callers observe it as atomic.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = cloneUser(u)
	}
	return s
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.SubscriptionExpiresAt != nil {
		t := *u.SubscriptionExpiresAt
		c.SubscriptionExpiresAt = &t
	}
	if u.PendingPaymentReference != nil {
		r := *u.PendingPaymentReference
		c.PendingPaymentReference = &r
	}
	c.ChatHistory = append([]domain.ChatEntry(nil), u.ChatHistory...)
	c.Profile = domain.Profile{
		Moods:       append([]string(nil), u.Profile.Moods...),
		Triggers:    append([]string(nil), u.Profile.Triggers...),
		Goals:       append([]string(nil), u.Profile.Goals...),
		Preferences: append([]string(nil), u.Profile.Preferences...),
	}
	return &c
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) ConsumeFreeCredit(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.FreeMessageCredits <= 0 {
		return domain.ErrQuotaExhausted
	}
	u.FreeMessageCredits--
	return nil
}

func (s *fakeUserStore) ExtendSubscription(_ context.Context, id uuid.UUID, d time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	base := time.Now()
	if u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(base) {
		base = *u.SubscriptionExpiresAt
	}
	expiry := base.Add(d)
	u.SubscriptionExpiresAt = &expiry
	return expiry, nil
}

func (s *fakeUserStore) SetPendingReference(_ context.Context, id uuid.UUID, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PendingPaymentReference = &reference
	return nil
}

func (s *fakeUserStore) ClaimPaymentReference(_ context.Context, reference string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PendingPaymentReference != nil && *u.PendingPaymentReference == reference {
			u.PendingPaymentReference = nil
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeUserStore) ClaimPendingForUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.PendingPaymentReference == nil {
		return nil, domain.ErrNotFound
	}
	u.PendingPaymentReference = nil
	return cloneUser(u), nil
}

func (s *fakeUserStore) AppendChatHistory(_ context.Context, id uuid.UUID, entries []domain.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ChatHistory = append(u.ChatHistory, entries...)
	if n := len(u.ChatHistory); n > domain.ChatHistoryLimit {
		u.ChatHistory = append([]domain.ChatEntry(nil), u.ChatHistory[n-domain.ChatHistoryLimit:]...)
	}
	return nil
}

func (s *fakeUserStore) MergeProfile(_ context.Context, id uuid.UUID, delta domain.ProfileDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Profile.Moods = mergeSet(u.Profile.Moods, delta.Moods)
	u.Profile.Triggers = mergeSet(u.Profile.Triggers, delta.Triggers)
	u.Profile.Goals = mergeSet(u.Profile.Goals, delta.Goals)
	u.Profile.Preferences = mergeSet(u.Profile.Preferences, delta.Preferences)
	return nil
}

func mergeSet(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range incoming {
		if _, ok := seen[v]; !ok {
			existing = append(existing, v)
			seen[v] = struct{}{}
		}
	}
	if n := len(existing); n > domain.ProfileSetLimit {
		existing = append([]string(nil), existing[n-domain.ProfileSetLimit:]...)
	}
	return existing
}

// MockConversationRepository mocks the ConversationRepository interface
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *MockConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

// MockJournalRepository mocks the JournalRepository interface
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Create(ctx context.Context, journal *domain.Journal) error {
	args := m.Called(ctx, journal)
	return args.Error(0)
}

func (m *MockJournalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Journal, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockLLMProvider mocks the llm.Provider interface
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLLMProvider) Complete(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockPaymentProvider mocks the payment.Provider interface
type MockPaymentProvider struct {
	mock.Mock
	name string
}

func (m *MockPaymentProvider) Name() string {
	return m.name
}

func (m *MockPaymentProvider) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockPaymentProvider) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Verification), args.Error(1)
}

func (m *MockPaymentProvider) SignatureHeader() string {
	return "X-Test-Signature"
}

func (m *MockPaymentProvider) VerifySignature(body []byte, header string) bool {
	args := m.Called(body, header)
	return args.Bool(0)
}

func (m *MockPaymentProvider) ParseWebhookEvent(body []byte) (*payment.WebhookEvent, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}
