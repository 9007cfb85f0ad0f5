package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
)

// SubscriptionTerm is the duration purchased by a single payment. The
// system sells one product tier.
const SubscriptionTerm = 30 * 24 * time.Hour

// LedgerService owns subscriptionExpiresAt. Activation is additive: paying
// while a subscription is still active stacks another term onto the current
// expiry instead of resetting it.
type LedgerService struct {
	users domain.UserRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(users domain.UserRepository) *LedgerService {
	return &LedgerService{users: users}
}

// Activate extends the user's subscription by one term and returns the new
// expiry. The extension is a single conditional update in the store. The
// ledger trusts its caller to invoke it at most once per paid event; the
// payment gateway's claim step guarantees that.
func (s *LedgerService) Activate(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	return s.users.ExtendSubscription(ctx, userID, SubscriptionTerm)
}

// IsActive reports whether the user's subscription is active at the given
// instant. Pure predicate, no side effects.
func (s *LedgerService) IsActive(user *domain.User, now time.Time) bool {
	return user.IsSubscribed(now)
}
