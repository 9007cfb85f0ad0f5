package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Journal represents a single journal entry
type Journal struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Entry     string    `json:"entry"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalCreate represents journal creation data
type JournalCreate struct {
	Entry string `json:"entry" validate:"required,max=10000"`
	Mood  string `json:"mood" validate:"max=50"`
}

// JournalRepository defines the interface for journal storage
type JournalRepository interface {
	Create(ctx context.Context, journal *Journal) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Journal, error)

	// Delete removes a journal entry scoped to its owner. Returns ErrNotFound
	// when the entry does not exist or belongs to another user.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
