package llm

import "context"

// Message is a single chat turn passed to the model
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request contains chat completion parameters
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Response contains the completion result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete generates a chat completion
	Complete(ctx context.Context, req Request, model string) (*Response, error)
}
