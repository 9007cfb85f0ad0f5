package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/llm"
	"github.com/rs/zerolog/log"
)

const (
	chatMaxTokens   = 500
	chatTemperature = 0.7
)

// ChatService orchestrates a chat turn: entitlement check, memory read,
// LLM completion, memory write.
type ChatService struct {
	users         domain.UserRepository
	conversations domain.ConversationRepository
	entitlement   *EntitlementService
	llmRouter     *llm.Router
	now           func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(
	users domain.UserRepository,
	conversations domain.ConversationRepository,
	entitlement *EntitlementService,
	llmRouter *llm.Router,
) *ChatService {
	return &ChatService{
		users:         users,
		conversations: conversations,
		entitlement:   entitlement,
		llmRouter:     llmRouter,
		now:           time.Now,
	}
}

// Send handles one chat message. Returns domain.ErrQuotaExhausted when the
// user has neither free credits nor an active subscription.
func (s *ChatService) Send(ctx context.Context, userID uuid.UUID, input domain.ChatSend) (*domain.ChatReply, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision, err := s.entitlement.AuthorizeAndConsume(ctx, user)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.ErrQuotaExhausted
	}

	provider, err := s.llmRouter.GetProvider(input.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}

	messages := make([]llm.Message, 0, len(user.ChatHistory)+1)
	for _, entry := range user.ChatHistory {
		messages = append(messages, llm.Message{Role: entry.Role, Content: entry.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Content: input.Message})

	system := llm.BuildSystemPrompt(
		user.Name,
		user.Profile.Moods,
		user.Profile.Triggers,
		user.Profile.Goals,
		user.Profile.Preferences,
	)

	resp, err := provider.Complete(ctx, llm.Request{
		System:      system,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}, "")
	if err != nil {
		return nil, fmt.Errorf("%w: completion failed: %w", domain.ErrProvider, err)
	}

	now := s.now()
	turn := []domain.ChatEntry{
		{Role: "user", Text: input.Message, Timestamp: now},
		{Role: "assistant", Text: resp.Text, Timestamp: now},
	}

	if err := s.users.AppendChatHistory(ctx, userID, turn); err != nil {
		return nil, err
	}

	if err := s.conversations.Create(ctx, &domain.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Messages:  turn,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	// Profile enrichment is best effort; the reply is already committed.
	if input.Mood != "" {
		delta := domain.ProfileDelta{Moods: []string{input.Mood}}
		if err := s.users.MergeProfile(ctx, userID, delta); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to merge profile")
		}
	}

	return &domain.ChatReply{
		Reply: resp.Text,
		Model: resp.Model,
	}, nil
}
