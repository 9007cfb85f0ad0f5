package service

import (
	"context"
	"errors"
	"time"

	"github.com/haven-app/haven-api/internal/domain"
)

// EntitlementService decides whether a user may perform a quota-limited
// action and consumes one free credit when they are not subscribed.
type EntitlementService struct {
	users domain.UserRepository
	now   func() time.Time
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(users domain.UserRepository) *EntitlementService {
	return &EntitlementService{
		users: users,
		now:   time.Now,
	}
}

// AuthorizeAndConsume checks whether the user may send a chat message.
// Subscribed users are always allowed and never charged a credit. Otherwise
// one free credit is consumed through an atomic conditional decrement: under
// concurrent requests the store admits exactly as many calls as there are
// credits. Quota exhaustion is a denial result, not an error.
func (s *EntitlementService) AuthorizeAndConsume(ctx context.Context, user *domain.User) (domain.Decision, error) {
	if user.IsSubscribed(s.now()) {
		return domain.Decision{Allowed: true, Subscribed: true}, nil
	}

	err := s.users.ConsumeFreeCredit(ctx, user.ID)
	switch {
	case err == nil:
		return domain.Decision{Allowed: true}, nil
	case errors.Is(err, domain.ErrQuotaExhausted):
		return domain.Decision{
			Allowed: false,
			Reason:  "you have used all your free messages, please subscribe to continue",
		}, nil
	default:
		return domain.Decision{}, err
	}
}
