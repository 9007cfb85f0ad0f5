package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/haven-app/haven-api/internal/tts"
)

// Provider implements tts.Provider for ElevenLabs
type Provider struct {
	apiKey  string
	voiceID string
	client  *http.Client
	baseURL string
}

// NewProvider creates a new ElevenLabs provider
func NewProvider(apiKey, voiceID string) tts.Provider {
	return &Provider{
		apiKey:  apiKey,
		voiceID: voiceID,
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: "https://api.elevenlabs.io",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "elevenlabs"
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != "" && p.voiceID != ""
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to speech audio
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Audio, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:          text,
		VoiceSettings: voiceSettings{Stability: 0.8, SimilarityBoost: 0.8},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := p.baseURL + "/v1/text-to-speech/" + url.PathEscape(p.voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	return &tts.Audio{
		Data:        audio,
		ContentType: "audio/mpeg",
	}, nil
}
