package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/haven-app/haven-api/internal/api/middleware"
	"github.com/haven-app/haven-api/internal/api/response"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/payment"
	"github.com/haven-app/haven-api/internal/service"
	"github.com/rs/zerolog/log"
)

// webhookBodyLimit caps webhook payload size
const webhookBodyLimit = 1 << 20

// PaymentHandler handles subscription payment endpoints
type PaymentHandler struct {
	paymentService  *service.PaymentService
	signatureHeader string
}

// NewPaymentHandler creates a new payment handler. webhookProvider supplies
// the header name its webhook signatures arrive under.
func NewPaymentHandler(paymentService *service.PaymentService, webhookProvider payment.Provider) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		signatureHeader: webhookProvider.SignatureHeader(),
	}
}

// Checkout creates a payment session and returns its redirect URL
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		Provider string `json:"provider" validate:"max=30"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}

	session, err := h.paymentService.Checkout(r.Context(), userID, input.Provider)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			response.BadRequest(w, "unknown payment provider")
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "user not found")
		case errors.Is(err, domain.ErrProvider):
			response.BadGateway(w, "payment provider is unavailable")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create checkout session")
			response.InternalError(w, "failed to create checkout session")
		}
		return
	}

	response.OK(w, session)
}

// Webhook receives asynchronous payment confirmations. The raw body is read
// before any parsing because the signature covers the exact bytes sent.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		response.BadRequest(w, "failed to read body")
		return
	}

	signature := r.Header.Get(h.signatureHeader)

	if err := h.paymentService.HandleWebhook(r.Context(), body, signature); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			log.Warn().Msg("Rejected webhook with invalid signature")
			response.BadRequest(w, "invalid signature")
			return
		}
		log.Warn().Err(err).Msg("Rejected unparseable webhook payload")
		response.BadRequest(w, "invalid payload")
		return
	}

	response.OK(w, map[string]string{"received": "true"})
}

// Verify settles a payment by polling the provider for its status
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	reference := chi.URLParam(r, "reference")
	if reference == "" {
		response.BadRequest(w, "missing payment reference")
		return
	}

	result, err := h.paymentService.Verify(r.Context(), userID, reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "no pending payment with this reference")
		case errors.Is(err, domain.ErrProvider):
			response.BadGateway(w, "payment provider is unavailable")
		default:
			response.InternalError(w, "failed to verify payment")
		}
		return
	}

	response.OK(w, result)
}
