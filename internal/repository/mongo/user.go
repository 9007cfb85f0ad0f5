package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// UserRepository implements domain.UserRepository on MongoDB.
//
// Every entitlement- or ledger-relevant mutation is a single conditional
// FindOneAndUpdate/UpdateOne so two racing requests can never both observe
// and mutate stale state.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type userDoc struct {
	ID                      string             `bson:"_id"`
	Email                   string             `bson:"email,omitempty"`
	Name                    string             `bson:"name,omitempty"`
	PasswordHash            string             `bson:"passwordHash"`
	FreeMessageCredits      int                `bson:"freeMessageCredits"`
	SubscriptionExpiresAt   *time.Time         `bson:"subscriptionExpiresAt,omitempty"`
	PendingPaymentReference *string            `bson:"pendingPaymentReference,omitempty"`
	ChatHistory             []domain.ChatEntry `bson:"chatHistory,omitempty"`
	Profile                 domain.Profile     `bson:"profile,omitempty"`
	CreatedAt               time.Time          `bson:"createdAt"`
}

func toDoc(u *domain.User) *userDoc {
	return &userDoc{
		ID:                      u.ID.String(),
		Email:                   u.Email,
		Name:                    u.Name,
		PasswordHash:            u.PasswordHash,
		FreeMessageCredits:      u.FreeMessageCredits,
		SubscriptionExpiresAt:   u.SubscriptionExpiresAt,
		PendingPaymentReference: u.PendingPaymentReference,
		ChatHistory:             u.ChatHistory,
		Profile:                 u.Profile,
		CreatedAt:               u.CreatedAt,
	}
}

func (d *userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:                      id,
		Email:                   d.Email,
		Name:                    d.Name,
		PasswordHash:            d.PasswordHash,
		FreeMessageCredits:      d.FreeMessageCredits,
		SubscriptionExpiresAt:   d.SubscriptionExpiresAt,
		PendingPaymentReference: d.PendingPaymentReference,
		ChatHistory:             d.ChatHistory,
		Profile:                 d.Profile,
		CreatedAt:               d.CreatedAt,
	}, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.coll.InsertOne(ctx, toDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toDomain()
}

// EmailExists checks whether an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

// ConsumeFreeCredit decrements freeMessageCredits only while it is positive.
// The filter and decrement run as one conditional update, so concurrent
// requests cannot spend the same credit twice.
func (r *UserRepository) ConsumeFreeCredit(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "freeMessageCredits": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"freeMessageCredits": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to consume credit: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuotaExhausted
	}
	return nil
}

// ExtendSubscription pushes subscriptionExpiresAt forward by d, starting from
// the current expiry when it is still in the future and from now otherwise.
// Implemented as a pipeline update so the extension is additive even when two
// settlements land back to back.
func (r *UserRepository) ExtendSubscription(ctx context.Context, id uuid.UUID, d time.Duration) (time.Time, error) {
	update := bson.A{
		bson.M{"$set": bson.M{
			"subscriptionExpiresAt": bson.M{"$add": bson.A{
				bson.M{"$max": bson.A{"$$NOW", "$subscriptionExpiresAt"}},
				d.Milliseconds(),
			}},
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to extend subscription: %w", err)
	}
	if doc.SubscriptionExpiresAt == nil {
		return time.Time{}, fmt.Errorf("subscription expiry missing after extension")
	}
	return *doc.SubscriptionExpiresAt, nil
}

// SetPendingReference records the correlation token of a freshly created
// payment session. A newer session overwrites an older pending one.
func (r *UserRepository) SetPendingReference(ctx context.Context, id uuid.UUID, reference string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"pendingPaymentReference": reference}},
	)
	if err != nil {
		return fmt.Errorf("failed to set pending reference: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClaimPaymentReference clears the pending reference for whichever user holds
// it and returns that user. The filter on the reference makes the claim a
// single-winner operation: a redelivered webhook or a raced verify finds no
// matching document and gets ErrNotFound.
func (r *UserRepository) ClaimPaymentReference(ctx context.Context, reference string) (*domain.User, error) {
	return r.claim(ctx, bson.M{"pendingPaymentReference": reference})
}

// ClaimPendingForUser clears whatever pending reference the user holds and
// returns the user. Used when the webhook correlates by user metadata rather
// than by session reference.
func (r *UserRepository) ClaimPendingForUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.claim(ctx, bson.M{
		"_id":                     id.String(),
		"pendingPaymentReference": bson.M{"$exists": true, "$ne": nil},
	})
}

func (r *UserRepository) claim(ctx context.Context, filter bson.M) (*domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx, filter,
		bson.M{"$unset": bson.M{"pendingPaymentReference": ""}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim payment reference: %w", err)
	}
	return doc.toDomain()
}

// AppendChatHistory pushes entries onto short-term memory, keeping only the
// most recent domain.ChatHistoryLimit entries.
func (r *UserRepository) AppendChatHistory(ctx context.Context, id uuid.UUID, entries []domain.ChatEntry) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$push": bson.M{"chatHistory": bson.M{
			"$each":  entries,
			"$slice": -domain.ChatHistoryLimit,
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to append chat history: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MergeProfile merges delta items into the profile sets. $addToSet dedupes;
// a second empty $push with $slice trims each set to domain.ProfileSetLimit,
// evicting oldest entries. The trim is best effort and runs only for the
// fields that received new items.
func (r *UserRepository) MergeProfile(ctx context.Context, id uuid.UUID, delta domain.ProfileDelta) error {
	fields := map[string][]string{
		"profile.moods":       delta.Moods,
		"profile.triggers":    delta.Triggers,
		"profile.goals":       delta.Goals,
		"profile.preferences": delta.Preferences,
	}

	addToSet := bson.M{}
	trim := bson.M{}
	for field, items := range fields {
		if len(items) == 0 {
			continue
		}
		addToSet[field] = bson.M{"$each": items}
		trim[field] = bson.M{"$each": bson.A{}, "$slice": -domain.ProfileSetLimit}
	}
	if len(addToSet) == 0 {
		return nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$addToSet": addToSet})
	if err != nil {
		return fmt.Errorf("failed to merge profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$push": trim}); err != nil {
		return fmt.Errorf("failed to trim profile: %w", err)
	}
	return nil
}
