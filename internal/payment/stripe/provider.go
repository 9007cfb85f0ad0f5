package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haven-app/haven-api/internal/payment"
)

const productName = "Haven Subscription"

// Provider implements payment.Provider for Stripe Checkout.
// Sessions are created over the form-encoded REST API and confirmed
// asynchronously through the signed webhook.
type Provider struct {
	secretKey     string
	webhookSecret string
	client        *http.Client
	baseURL       string
}

// NewProvider creates a new Stripe provider
func NewProvider(secretKey, webhookSecret string) *Provider {
	return &Provider{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
		baseURL:       "https://api.stripe.com",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "stripe"
}

type checkoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// Initialize creates a checkout session
func (p *Provider) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("customer_email", req.Email)
	form.Set("success_url", req.CallbackURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", req.CallbackURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &payment.Session{
		URL:       session.URL,
		Reference: session.ID,
	}, nil
}

// Verify fetches a checkout session and maps its payment status
func (p *Provider) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v1/checkout/sessions/"+url.PathEscape(reference), nil)
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
		return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var session checkoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	status := payment.StatusPending
	switch session.PaymentStatus {
	case "paid", "no_payment_required":
		status = payment.StatusSuccess
	case "unpaid":
		status = payment.StatusPending
	}

	return &payment.Verification{Status: status, Raw: raw}, nil
}

// SignatureHeader returns the webhook signature header name
func (p *Provider) SignatureHeader() string {
	return "Stripe-Signature"
}

// VerifySignature checks the Stripe-Signature header. The header carries a
// timestamp and one or more v1 signatures; each is an HMAC-SHA256 of
// "<timestamp>.<body>" under the webhook secret.
func (p *Provider) VerifySignature(body []byte, header string) bool {
	var timestamp string
	var signatures []string

	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "t":
			timestamp = parts[1]
		case "v1":
			signatures = append(signatures, parts[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent parses a webhook body into a normalized event
func (p *Provider) ParseWebhookEvent(body []byte) (*payment.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	eventType := payment.EventIgnored
	if payload.Type == "checkout.session.completed" {
		eventType = payment.EventPaymentSucceeded
	}

	return &payment.WebhookEvent{
		Type:      eventType,
		Reference: payload.Data.Object.ID,
		Metadata:  payload.Data.Object.Metadata,
	}, nil
}
