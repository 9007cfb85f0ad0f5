package groq

import (
	"context"
	"fmt"
	"time"

	"github.com/haven-app/haven-api/internal/llm"
	openai "github.com/sashabaranov/go-openai"
)

const baseURL = "https://api.groq.com/openai/v1"

// Provider implements llm.Provider for Groq. Groq speaks the OpenAI chat
// completions protocol, so the go-openai client is pointed at its base URL.
type Provider struct {
	apiKey       string
	defaultModel string
	client       *openai.Client
}

// NewProvider creates a new Groq provider
func NewProvider(apiKey, defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "llama-3.3-70b-versatile"
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "groq"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Complete generates a chat completion
func (p *Provider) Complete(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("groq completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from groq")
	}

	return &llm.Response{
		Text:       resp.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
