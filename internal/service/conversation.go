package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
)

const conversationListLimit = 20

// ConversationService handles saved conversation operations
type ConversationService struct {
	conversations domain.ConversationRepository
}

// NewConversationService creates a new conversation service
func NewConversationService(conversations domain.ConversationRepository) *ConversationService {
	return &ConversationService{conversations: conversations}
}

// Save stores a conversation snapshot for the user
func (s *ConversationService) Save(ctx context.Context, userID uuid.UUID, input domain.ConversationCreate) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Messages:  input.Messages,
		CreatedAt: time.Now(),
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	return conv, nil
}

// List returns the user's most recent saved conversations, newest first
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID, conversationListLimit)
}
