package domain

import "time"

// CheckoutSession is the result of initiating a payment session with an
// external provider. Reference is the correlation token persisted as the
// user's pendingPaymentReference until the payment is reconciled.
type CheckoutSession struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
	Provider  string `json:"provider"`
}

// VerifyResult is the outcome of poll-verifying a payment reference.
// A non-success status is an ordinary result, not an error: the reference
// stays pending and the caller may retry.
type VerifyResult struct {
	Success   bool       `json:"success"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
}
