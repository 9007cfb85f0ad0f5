package domain

// ChatSend represents an incoming chat message
type ChatSend struct {
	Message string `json:"message" validate:"required,max=4000"`
	// Mood optionally tags how the user is feeling; merged into the
	// long-term profile.
	Mood string `json:"mood" validate:"max=50"`
	// Provider optionally selects the LLM provider; empty uses the default.
	Provider string `json:"provider" validate:"max=30"`
}

// ChatReply is the assistant's response
type ChatReply struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}
