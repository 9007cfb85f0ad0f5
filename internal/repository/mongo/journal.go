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

const journalsCollection = "journals"

// JournalRepository implements domain.JournalRepository
type JournalRepository struct {
	coll *mongo.Collection
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{coll: db.Collection(journalsCollection)}
}

type journalDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Entry     string    `bson:"entry"`
	Mood      string    `bson:"mood,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d *journalDoc) toDomain() (*domain.Journal, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid journal id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.UserID, err)
	}
	return &domain.Journal{
		ID:        id,
		UserID:    userID,
		Entry:     d.Entry,
		Mood:      d.Mood,
		CreatedAt: d.CreatedAt,
	}, nil
}

// Create inserts a journal entry
func (r *JournalRepository) Create(ctx context.Context, journal *domain.Journal) error {
	doc := journalDoc{
		ID:        journal.ID.String(),
		UserID:    journal.UserID.String(),
		Entry:     journal.Entry,
		Mood:      journal.Mood,
		CreatedAt: journal.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create journal: %w", err)
	}
	return nil
}

// ListByUser returns the user's journal entries, newest first
func (r *JournalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Journal, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	defer cursor.Close(ctx)

	var journals []domain.Journal
	for cursor.Next(ctx) {
		var doc journalDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode journal: %w", err)
		}
		j, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		journals = append(journals, *j)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return journals, nil
}

// Delete removes a journal entry owned by the given user
func (r *JournalRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := r.coll.FindOneAndDelete(ctx, bson.M{
		"_id":    id.String(),
		"userId": userID.String(),
	})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	return nil
}
