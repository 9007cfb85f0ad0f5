package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService(store *fakeUserStore) (*PaymentService, *MockPaymentProvider, *MockPaymentProvider) {
	webhook := &MockPaymentProvider{name: "stripe"}
	poll := &MockPaymentProvider{name: "paystack"}
	svc := NewPaymentService(store, NewLedgerService(store), webhook, poll, PaymentConfig{
		DefaultProvider: "stripe",
		AmountMinor:     999,
		Currency:        "usd",
		CallbackURL:     "https://app.example.com/payment/callback",
	})
	return svc, webhook, poll
}

func TestPaymentService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session and records pending reference", func(t *testing.T) {
		user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
		store := newFakeUserStore(user)
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("Initialize", ctx, mock.MatchedBy(func(req payment.InitializeRequest) bool {
			return req.Email == "ada@example.com" &&
				req.AmountMinor == 999 &&
				req.Metadata["user_id"] == user.ID.String()
		})).Return(&payment.Session{URL: "https://pay.example.com/cs_1", Reference: "cs_1"}, nil)

		session, err := svc.Checkout(ctx, user.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/cs_1", session.URL)
		assert.Equal(t, "cs_1", session.Reference)
		assert.Equal(t, "stripe", session.Provider)

		stored, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.PendingPaymentReference)
		assert.Equal(t, "cs_1", *stored.PendingPaymentReference)

		webhook.AssertExpectations(t)
	})

	t.Run("synthetic email when stored one is unusable", func(t *testing.T) {
		user := &domain.User{ID: uuid.New(), Email: "not-an-email"}
		store := newFakeUserStore(user)
		svc, _, poll := newTestPaymentService(store)

		poll.On("Initialize", ctx, mock.MatchedBy(func(req payment.InitializeRequest) bool {
			return req.Email == "user-"+user.ID.String()+"@users.haven.app"
		})).Return(&payment.Session{URL: "https://pay.example.com/ps_1", Reference: "ps_1"}, nil)

		session, err := svc.Checkout(ctx, user.ID, "paystack")
		require.NoError(t, err)
		assert.Equal(t, "paystack", session.Provider)

		poll.AssertExpectations(t)
	})

	t.Run("new checkout overwrites previous pending reference", func(t *testing.T) {
		old := "cs_old"
		user := &domain.User{ID: uuid.New(), Email: "ada@example.com", PendingPaymentReference: &old}
		store := newFakeUserStore(user)
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("Initialize", ctx, mock.Anything).
			Return(&payment.Session{URL: "https://pay.example.com/cs_new", Reference: "cs_new"}, nil)

		_, err := svc.Checkout(ctx, user.ID, "stripe")
		require.NoError(t, err)

		stored, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "cs_new", *stored.PendingPaymentReference)
	})

	t.Run("unknown provider", func(t *testing.T) {
		user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
		store := newFakeUserStore(user)
		svc, _, _ := newTestPaymentService(store)

		_, err := svc.Checkout(ctx, user.ID, "bitcoin")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newTestPaymentService(newFakeUserStore())

		_, err := svc.Checkout(ctx, uuid.New(), "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"type":"checkout.session.completed"}`)

	t.Run("invalid signature rejected without mutation", func(t *testing.T) {
		ref := "cs_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("VerifySignature", body, "bad").Return(false)

		err := svc.HandleWebhook(ctx, body, "bad")
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)

		stored, _ := store.GetByID(ctx, user.ID)
		assert.NotNil(t, stored.PendingPaymentReference)
		assert.Nil(t, stored.SubscriptionExpiresAt)
	})

	t.Run("successful payment extends subscription once", func(t *testing.T) {
		ref := "cs_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("VerifySignature", body, "sig").Return(true)
		webhook.On("ParseWebhookEvent", body).
			Return(&payment.WebhookEvent{Type: payment.EventPaymentSucceeded, Reference: "cs_1"}, nil)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		stored, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.PendingPaymentReference)
		require.NotNil(t, stored.SubscriptionExpiresAt)
		firstExpiry := *stored.SubscriptionExpiresAt
		assert.WithinDuration(t, time.Now().Add(SubscriptionTerm), firstExpiry, 2*time.Second)

		// Redelivery of the same event is acked without a second extension.
		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		stored, err = store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, firstExpiry, *stored.SubscriptionExpiresAt)
	})

	t.Run("falls back to metadata user id", func(t *testing.T) {
		ref := "cs_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("VerifySignature", body, "sig").Return(true)
		webhook.On("ParseWebhookEvent", body).Return(&payment.WebhookEvent{
			Type:     payment.EventPaymentSucceeded,
			Metadata: map[string]string{"user_id": user.ID.String()},
		}, nil)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		stored, _ := store.GetByID(ctx, user.ID)
		assert.Nil(t, stored.PendingPaymentReference)
		assert.NotNil(t, stored.SubscriptionExpiresAt)
	})

	t.Run("unmatched reference is acked", func(t *testing.T) {
		store := newFakeUserStore()
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("VerifySignature", body, "sig").Return(true)
		webhook.On("ParseWebhookEvent", body).
			Return(&payment.WebhookEvent{Type: payment.EventPaymentSucceeded, Reference: "cs_ghost"}, nil)

		assert.NoError(t, svc.HandleWebhook(ctx, body, "sig"))
	})

	t.Run("irrelevant event type is ignored", func(t *testing.T) {
		ref := "cs_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, webhook, _ := newTestPaymentService(store)

		webhook.On("VerifySignature", body, "sig").Return(true)
		webhook.On("ParseWebhookEvent", body).
			Return(&payment.WebhookEvent{Type: payment.EventIgnored}, nil)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		stored, _ := store.GetByID(ctx, user.ID)
		assert.NotNil(t, stored.PendingPaymentReference)
		assert.Nil(t, stored.SubscriptionExpiresAt)
	})
}

func TestPaymentService_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("successful verification extends and clears reference", func(t *testing.T) {
		ref := "ps_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, _, poll := newTestPaymentService(store)

		poll.On("Verify", ctx, "ps_1").
			Return(&payment.Verification{Status: payment.StatusSuccess}, nil)

		result, err := svc.Verify(ctx, user.ID, "ps_1")
		require.NoError(t, err)
		assert.True(t, result.Success)
		require.NotNil(t, result.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(SubscriptionTerm), *result.ExpiresAt, 2*time.Second)

		stored, _ := store.GetByID(ctx, user.ID)
		assert.Nil(t, stored.PendingPaymentReference)
	})

	t.Run("replay after settlement", func(t *testing.T) {
		ref := "ps_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, _, poll := newTestPaymentService(store)

		poll.On("Verify", ctx, "ps_1").
			Return(&payment.Verification{Status: payment.StatusSuccess}, nil)

		_, err := svc.Verify(ctx, user.ID, "ps_1")
		require.NoError(t, err)

		_, err = svc.Verify(ctx, user.ID, "ps_1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("pending status leaves reference intact", func(t *testing.T) {
		ref := "ps_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, _, poll := newTestPaymentService(store)

		poll.On("Verify", ctx, "ps_1").
			Return(&payment.Verification{Status: payment.StatusPending}, nil)

		result, err := svc.Verify(ctx, user.ID, "ps_1")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "pending", result.Status)

		stored, _ := store.GetByID(ctx, user.ID)
		require.NotNil(t, stored.PendingPaymentReference)
		assert.Equal(t, "ps_1", *stored.PendingPaymentReference)
		assert.Nil(t, stored.SubscriptionExpiresAt)
	})

	t.Run("reference mismatch", func(t *testing.T) {
		ref := "ps_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, _, _ := newTestPaymentService(store)

		_, err := svc.Verify(ctx, user.ID, "ps_other")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("provider failure surfaces as provider error", func(t *testing.T) {
		ref := "ps_1"
		user := &domain.User{ID: uuid.New(), PendingPaymentReference: &ref}
		store := newFakeUserStore(user)
		svc, _, poll := newTestPaymentService(store)

		poll.On("Verify", ctx, "ps_1").Return(nil, assert.AnError)

		_, err := svc.Verify(ctx, user.ID, "ps_1")
		assert.ErrorIs(t, err, domain.ErrProvider)

		stored, _ := store.GetByID(ctx, user.ID)
		assert.NotNil(t, stored.PendingPaymentReference)
	})
}
