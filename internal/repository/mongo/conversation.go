package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const conversationsCollection = "conversations"

// ConversationRepository implements domain.ConversationRepository
type ConversationRepository struct {
	coll *mongo.Collection
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{coll: db.Collection(conversationsCollection)}
}

type conversationDoc struct {
	ID        string             `bson:"_id"`
	UserID    string             `bson:"userId"`
	Messages  []domain.ChatEntry `bson:"messages"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *conversationDoc) toDomain() (*domain.Conversation, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.UserID, err)
	}
	return &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Messages:  d.Messages,
		CreatedAt: d.CreatedAt,
	}, nil
}

// Create inserts a conversation
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	doc := conversationDoc{
		ID:        conv.ID.String(),
		UserID:    conv.UserID.String(),
		Messages:  conv.Messages,
		CreatedAt: conv.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// ListByUser returns the user's conversations, newest first
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []domain.Conversation
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		c, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return convs, nil
}
