package domain

// Decision is the outcome of an entitlement check. A denial is an ordinary
// result so callers can map it to a payment-required response rather than a
// server error.
type Decision struct {
	Allowed    bool
	Subscribed bool
	Reason     string
}
