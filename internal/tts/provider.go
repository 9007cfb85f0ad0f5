package tts

import "context"

// Audio is a synthesized speech payload
type Audio struct {
	Data        []byte
	ContentType string
}

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Synthesize converts text to speech audio
	Synthesize(ctx context.Context, text string) (*Audio, error)
}
