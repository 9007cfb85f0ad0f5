package handler

import (
	"encoding/json"
	"net/http"

	"github.com/haven-app/haven-api/internal/api/response"
	"github.com/haven-app/haven-api/internal/tts"
)

// TTSHandler handles text-to-speech endpoints
type TTSHandler struct {
	provider tts.Provider
}

// NewTTSHandler creates a new TTS handler
func NewTTSHandler(provider tts.Provider) *TTSHandler {
	return &TTSHandler{provider: provider}
}

// Synthesize converts text to speech and streams the audio back
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text" validate:"required,max=5000"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	if !h.provider.IsConfigured() {
		response.BadGateway(w, "speech synthesis is not configured")
		return
	}

	audio, err := h.provider.Synthesize(r.Context(), input.Text)
	if err != nil {
		response.BadGateway(w, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(audio.Data)
}
