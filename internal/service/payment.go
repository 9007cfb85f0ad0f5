package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/payment"
	"github.com/rs/zerolog/log"
)

// PaymentService reconciles external payment sessions with local subscription
// state. Two protocols are supported: webhook confirmation (card checkout)
// and poll verification (regional gateway). Both funnel into the same
// claim-then-activate path, and the atomic claim of the pending reference is
// what makes reconciliation apply exactly once per paid event.
type PaymentService struct {
	users           domain.UserRepository
	ledger          *LedgerService
	providers       map[string]payment.Provider
	defaultProvider string
	webhookProvider payment.Provider
	pollProvider    payment.Provider
	amountMinor     int64
	currency        string
	callbackURL     string
}

// PaymentConfig carries the product parameters for checkout sessions
type PaymentConfig struct {
	DefaultProvider string
	AmountMinor     int64
	Currency        string
	CallbackURL     string
}

// NewPaymentService creates a new payment service. webhookProvider is the
// card provider confirmed asynchronously; pollProvider is the gateway
// settled by verify-by-reference.
func NewPaymentService(
	users domain.UserRepository,
	ledger *LedgerService,
	webhookProvider payment.Provider,
	pollProvider payment.Provider,
	cfg PaymentConfig,
) *PaymentService {
	providers := map[string]payment.Provider{
		webhookProvider.Name(): webhookProvider,
		pollProvider.Name():    pollProvider,
	}
	return &PaymentService{
		users:           users,
		ledger:          ledger,
		providers:       providers,
		defaultProvider: cfg.DefaultProvider,
		webhookProvider: webhookProvider,
		pollProvider:    pollProvider,
		amountMinor:     cfg.AmountMinor,
		currency:        cfg.Currency,
		callbackURL:     cfg.CallbackURL,
	}
}

// Checkout creates a payment session with the chosen provider and records
// its reference as the user's pending payment. A new checkout overwrites any
// previous pending reference; only the most recent session stays verifiable.
func (s *PaymentService) Checkout(ctx context.Context, userID uuid.UUID, providerName string) (*domain.CheckoutSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if providerName == "" {
		providerName = s.defaultProvider
	}
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment provider: %s", domain.ErrValidation, providerName)
	}

	session, err := provider.Initialize(ctx, payment.InitializeRequest{
		Email:       checkoutEmail(user),
		AmountMinor: s.amountMinor,
		Currency:    s.currency,
		CallbackURL: s.callbackURL,
		Metadata:    map[string]string{"user_id": user.ID.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize checkout: %w", domain.ErrProvider, err)
	}

	if err := s.users.SetPendingReference(ctx, user.ID, session.Reference); err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{
		URL:       session.URL,
		Reference: session.Reference,
		Provider:  provider.Name(),
	}, nil
}

// checkoutEmail returns the user's email, or a deterministic synthetic
// address derived from the user id when the stored one is unusable. Repeated
// calls for the same user always yield the same address.
func checkoutEmail(user *domain.User) string {
	if strings.Contains(user.Email, "@") {
		return user.Email
	}
	return fmt.Sprintf("user-%s@users.haven.app", user.ID)
}

// HandleWebhook processes a signed provider webhook. Returning an error
// means the request was rejected before any state change (bad signature or
// unparseable payload). Once the payload is authenticated and parsed, all
// downstream anomalies are logged and absorbed so the provider does not
// retry unrecoverable events.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	provider := s.webhookProvider

	if !provider.VerifySignature(body, signature) {
		return domain.ErrInvalidSignature
	}

	event, err := provider.ParseWebhookEvent(body)
	if err != nil {
		return fmt.Errorf("failed to parse webhook event: %w", err)
	}

	if event.Type != payment.EventPaymentSucceeded {
		log.Debug().Str("provider", provider.Name()).Msg("Ignoring webhook event")
		return nil
	}

	user, err := s.claimEvent(ctx, event)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Already settled or no matching user. Ack so the provider
			// stops redelivering.
			log.Warn().
				Str("reference", event.Reference).
				Msg("Webhook payment has no matching pending reference")
			return nil
		}
		log.Error().Err(err).Str("reference", event.Reference).Msg("Failed to claim payment reference")
		return nil
	}

	expiry, err := s.ledger.Activate(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to extend subscription")
		return nil
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Time("expires_at", expiry).
		Msg("Subscription activated via webhook")
	return nil
}

// claimEvent resolves the paying user and clears their pending reference in
// one conditional update. Correlation prefers the session reference and
// falls back to the user id carried in event metadata.
func (s *PaymentService) claimEvent(ctx context.Context, event *payment.WebhookEvent) (*domain.User, error) {
	if event.Reference != "" {
		return s.users.ClaimPaymentReference(ctx, event.Reference)
	}
	if raw, ok := event.Metadata["user_id"]; ok {
		if userID, err := uuid.Parse(raw); err == nil {
			return s.users.ClaimPendingForUser(ctx, userID)
		}
	}
	return nil, domain.ErrNotFound
}

// Verify settles a payment by polling the provider for the reference's
// status. A non-success provider status leaves the reference pending so the
// caller can retry. ErrNotFound covers both unknown references and replays
// of references that were already settled.
func (s *PaymentService) Verify(ctx context.Context, userID uuid.UUID, reference string) (*domain.VerifyResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PendingPaymentReference == nil || *user.PendingPaymentReference != reference {
		return nil, domain.ErrNotFound
	}

	verification, err := s.pollProvider.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to verify payment: %w", domain.ErrProvider, err)
	}

	if verification.Status != payment.StatusSuccess {
		return &domain.VerifyResult{
			Success: false,
			Status:  string(verification.Status),
		}, nil
	}

	claimed, err := s.users.ClaimPaymentReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A concurrent verify or webhook settled this reference first;
			// the payment is applied, so report success without extending.
			return &domain.VerifyResult{Success: true, Status: string(payment.StatusSuccess)}, nil
		}
		return nil, err
	}

	expiry, err := s.ledger.Activate(ctx, claimed.ID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", claimed.ID.String()).
		Time("expires_at", expiry).
		Msg("Subscription activated via verification")

	return &domain.VerifyResult{
		Success:   true,
		Status:    string(payment.StatusSuccess),
		ExpiresAt: &expiry,
	}, nil
}
