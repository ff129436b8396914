package billing

import "errors"

// Error taxonomy surfaced by the billing service. Initiators map these to
// HTTP statuses; the webhook path never turns business mismatches into
// non-2xx responses (that would trigger gateway redelivery).
var (
	ErrInvalidPlan          = errors.New("invalid subscription plan")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrGatewayUnavailable   = errors.New("billing gateway unavailable")
	ErrNotFound             = errors.New("billing record not found")
)
