package domain

import "errors"

// Sentinel errors shared across services and repositories.
// Business denials (quota, pending payments) are returned as values, not
// errors; these cover lookups, auth, and infrastructure boundaries.
var (
	// ErrNotFound indicates the requested user, journal, or payment
	// reference does not exist (or was already consumed).
	ErrNotFound = errors.New("not found")

	// ErrQuotaExhausted indicates the user has no free credits left and no
	// active subscription. Mapped to 402 by the HTTP layer.
	ErrQuotaExhausted = errors.New("message quota exhausted")

	// ErrInvalidSignature indicates a webhook payload failed signature
	// verification. No state is mutated when this is returned.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrEmailTaken indicates a registration attempt with an email that is
	// already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProvider wraps failures of external collaborators (LLM, payment,
	// TTS). Handlers surface these as 502 with a generic message.
	ErrProvider = errors.New("upstream provider error")

	// ErrValidation indicates a request that is well-formed but semantically
	// invalid, such as naming an unknown payment provider. Mapped to 400.
	ErrValidation = errors.New("invalid request")
)
