package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation is a saved exchange of chat messages
type Conversation struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Messages  []ChatEntry `json:"messages"`
	CreatedAt time.Time   `json:"created_at"`
}

// ConversationCreate represents conversation save data
type ConversationCreate struct {
	Messages []ChatEntry `json:"messages" validate:"required,min=1,dive"`
}

// ConversationRepository defines the interface for conversation storage
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Conversation, error)
}
