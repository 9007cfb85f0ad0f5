package payment

import (
	"context"
	"encoding/json"
)

// Status is the provider-normalized outcome of a payment verification
type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// EventType is a provider-normalized webhook event type
type EventType string

const (
	// EventPaymentSucceeded is emitted when a checkout session was paid
	EventPaymentSucceeded EventType = "payment.succeeded"

	// EventIgnored covers event types the gateway does not act on
	EventIgnored EventType = "ignored"
)

// InitializeRequest contains the parameters for creating a checkout session
type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	CallbackURL string
	Metadata    map[string]string
}

// Session is a created checkout session. Reference is the provider-issued
// correlation token used to reconcile the payment later.
type Session struct {
	URL       string
	Reference string
}

// Verification is the result of verifying a payment by reference
type Verification struct {
	Status Status
	Raw    json.RawMessage
}

// WebhookEvent is a parsed, provider-normalized webhook payload
type WebhookEvent struct {
	Type      EventType
	Reference string
	Metadata  map[string]string
}

// Provider defines the interface for payment providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// Initialize creates a checkout session with the external provider
	Initialize(ctx context.Context, req InitializeRequest) (*Session, error)

	// Verify checks the payment status of a session by its reference
	Verify(ctx context.Context, reference string) (*Verification, error)

	// SignatureHeader returns the HTTP header carrying the webhook signature
	SignatureHeader() string

	// VerifySignature checks a webhook signature over the raw request body
	VerifySignature(body []byte, header string) bool

	// ParseWebhookEvent parses a raw webhook body into a normalized event
	ParseWebhookEvent(body []byte) (*WebhookEvent, error)
}
