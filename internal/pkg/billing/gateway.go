package billing

import "context"

// Gateway abstracts the external payment processor. The Stripe implementation
// lives in stripe.go; tests substitute a fake. All calls are bounded by the
// underlying client's timeout and surface transport failures as
// ErrGatewayUnavailable.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*GatewaySubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error)
}
