package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/haven-app/haven-api/internal/payment"
)

// Provider implements payment.Provider for Paystack. Sessions are created
// through transaction initialize and settled by verify-by-reference polling.
type Provider struct {
	secretKey string
	client    *http.Client
	baseURL   string
}

// NewProvider creates a new Paystack provider
func NewProvider(secretKey string) *Provider {
	return &Provider{
		secretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   "https://api.paystack.co",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "paystack"
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"message"`
	Data   struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Initialize creates a transaction and returns its checkout URL and reference
func (p *Provider) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Session, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack returned status %d", resp.StatusCode)
	}

	var initResp initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !initResp.Status {
		return nil, fmt.Errorf("paystack rejected initialize: %s", initResp.Msg)
	}

	return &payment.Session{
		URL:       initResp.Data.AuthorizationURL,
		Reference: initResp.Data.Reference,
	}, nil
}

type verifyResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"message"`
	Data   struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
	} `json:"data"`
}

// Verify checks a transaction's status by reference
func (p *Provider) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var verResp verifyResponse
	if err := json.Unmarshal(raw, &verResp); err != nil {
		return nil, fmt.Errorf("failed to parse verification: %w", err)
	}

	status := payment.StatusPending
	switch verResp.Data.Status {
	case "success":
		status = payment.StatusSuccess
	case "failed", "abandoned", "reversed":
		status = payment.StatusFailed
	}

	return &payment.Verification{Status: status, Raw: raw}, nil
}

// SignatureHeader returns the webhook signature header name
func (p *Provider) SignatureHeader() string {
	return "X-Paystack-Signature"
}

// VerifySignature checks the webhook signature: a hex HMAC-SHA512 of the raw
// body under the secret key.
func (p *Provider) VerifySignature(body []byte, header string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

// ParseWebhookEvent parses a webhook body into a normalized event
func (p *Provider) ParseWebhookEvent(body []byte) (*payment.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	eventType := payment.EventIgnored
	if payload.Event == "charge.success" {
		eventType = payment.EventPaymentSucceeded
	}

	return &payment.WebhookEvent{
		Type:      eventType,
		Reference: payload.Data.Reference,
		Metadata:  payload.Data.Metadata,
	}, nil
}
