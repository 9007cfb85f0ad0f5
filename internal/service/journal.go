package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
)

const journalListLimit = 50

// JournalService handles journal entry operations
type JournalService struct {
	journals domain.JournalRepository
}

// NewJournalService creates a new journal service
func NewJournalService(journals domain.JournalRepository) *JournalService {
	return &JournalService{journals: journals}
}

// Create records a new journal entry for the user
func (s *JournalService) Create(ctx context.Context, userID uuid.UUID, input domain.JournalCreate) (*domain.Journal, error) {
	journal := &domain.Journal{
		ID:        uuid.New(),
		UserID:    userID,
		Entry:     input.Entry,
		Mood:      input.Mood,
		CreatedAt: time.Now(),
	}

	if err := s.journals.Create(ctx, journal); err != nil {
		return nil, err
	}

	return journal, nil
}

// List returns the user's most recent journal entries, newest first
func (s *JournalService) List(ctx context.Context, userID uuid.UUID) ([]domain.Journal, error) {
	return s.journals.ListByUser(ctx, userID, journalListLimit)
}

// Delete removes a journal entry owned by the user
func (s *JournalService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.journals.Delete(ctx, id, userID)
}
