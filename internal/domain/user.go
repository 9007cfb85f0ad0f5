package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultFreeCredits is the number of free messages granted at signup.
	DefaultFreeCredits = 10

	// ChatHistoryLimit bounds the short-term memory kept on the user record;
	// oldest entries are evicted first.
	ChatHistoryLimit = 20

	// ProfileSetLimit bounds each long-term profile set; oldest entries are
	// evicted first.
	ProfileSetLimit = 50
)

// User represents a platform user and their entitlement state.
type User struct {
	ID                      uuid.UUID   `json:"id"`
	Email                   string      `json:"email"`
	Name                    string      `json:"name"`
	PasswordHash            string      `json:"-"`
	FreeMessageCredits      int         `json:"free_message_credits"`
	SubscriptionExpiresAt   *time.Time  `json:"subscription_expires_at"`
	PendingPaymentReference *string     `json:"-"`
	ChatHistory             []ChatEntry `json:"-"`
	Profile                 Profile     `json:"profile"`
	CreatedAt               time.Time   `json:"created_at"`
}

// IsSubscribed reports whether the user has an active subscription at the
// given instant. subscriptionExpiresAt is the sole source of truth; there is
// no separate "active" flag.
func (u *User) IsSubscribed(now time.Time) bool {
	return u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(now)
}

// ChatEntry is one turn of short-term conversation memory.
type ChatEntry struct {
	Role      string    `json:"role" bson:"role"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Profile is the long-term profile kept for a user. Each field is a
// deduplicated set of strings, bounded at ProfileSetLimit entries.
type Profile struct {
	Moods       []string `json:"moods" bson:"moods"`
	Triggers    []string `json:"triggers" bson:"triggers"`
	Goals       []string `json:"goals" bson:"goals"`
	Preferences []string `json:"preferences" bson:"preferences"`
}

// ProfileDelta carries new profile items to merge into the stored sets.
type ProfileDelta struct {
	Moods       []string
	Triggers    []string
	Goals       []string
	Preferences []string
}

// Empty reports whether the delta carries nothing to merge.
func (d ProfileDelta) Empty() bool {
	return len(d.Moods) == 0 && len(d.Triggers) == 0 &&
		len(d.Goals) == 0 && len(d.Preferences) == 0
}

// UserCreate represents user registration data
type UserCreate struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the interface for user storage.
//
// ConsumeFreeCredit, ExtendSubscription and the Claim* methods are atomic
// conditional updates: check and mutation happen in a single operation
// against the store, never as an application-level read-modify-write.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// ConsumeFreeCredit decrements freeMessageCredits by one, only if the
	// current value is greater than zero. Returns ErrQuotaExhausted when no
	// matching record was updated.
	ConsumeFreeCredit(ctx context.Context, id uuid.UUID) error

	// ExtendSubscription extends subscriptionExpiresAt by the given duration,
	// additively: the new expiry is max(now, current expiry) + d. Returns the
	// new expiry.
	ExtendSubscription(ctx context.Context, id uuid.UUID, d time.Duration) (time.Time, error)

	// SetPendingReference records the correlation token of an in-flight
	// payment session, overwriting any previous one.
	SetPendingReference(ctx context.Context, id uuid.UUID, reference string) error

	// ClaimPaymentReference atomically clears pendingPaymentReference for the
	// user holding the given reference and returns that user. Returns
	// ErrNotFound when no user holds the reference, including the case where
	// it was already claimed, which is what makes reconciliation idempotent.
	ClaimPaymentReference(ctx context.Context, reference string) (*User, error)

	// ClaimPendingForUser atomically clears whatever pending reference the
	// given user holds and returns the user. Returns ErrNotFound when the
	// user does not exist or holds no pending reference.
	ClaimPendingForUser(ctx context.Context, id uuid.UUID) (*User, error)

	// AppendChatHistory appends entries to short-term memory, keeping only
	// the ChatHistoryLimit most recent.
	AppendChatHistory(ctx context.Context, id uuid.UUID, entries []ChatEntry) error

	// MergeProfile merges the delta into the stored profile sets,
	// deduplicating and evicting oldest entries past ProfileSetLimit.
	MergeProfile(ctx context.Context, id uuid.UUID, delta ProfileDelta) error
}
