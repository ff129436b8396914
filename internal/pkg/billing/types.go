package billing

import "time"

// Gateway event types this system models. Everything else is acknowledged
// and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// GatewayStatusActive is the gateway-side status value that maps to a local
// active entitlement.
const GatewayStatusActive = "active"

// CheckoutSessionInput describes a new subscription purchase at the gateway.
// ClientReferenceID carries the local account correlation so the asynchronous
// completion webhook can be matched back.
type CheckoutSessionInput struct {
	PriceID           string
	ClientReferenceID string
	CustomerID        string
	CustomerEmail     string
	SuccessURL        string
	CancelURL         string
	IdempotencyKey    string
}

// CheckoutSession is the opaque handle returned to the client for redirect.
type CheckoutSession struct {
	ID  string
	URL string
}

// GatewaySubscription is the provider-agnostic snapshot of a subscription as
// the gateway reports it.
type GatewaySubscription struct {
	ID                string
	Status            string
	CustomerID        string
	PriceID           string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

// Invoice is a line of billing history shown in the entitlement query.
type Invoice struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	Status           string     `json:"status"`
	AmountDue        int64      `json:"amount_due"`
	AmountPaid       int64      `json:"amount_paid"`
	Currency         string     `json:"currency"`
	CreatedAt        time.Time  `json:"created_at"`
	HostedInvoiceURL string     `json:"hosted_invoice_url,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

// EntitlementUpdate is a single atomic overwrite of an account's entitlement
// columns. Status and EndDate are always written (a nil EndDate clears the
// column); SubscriptionID and CustomerID are written only when non-nil, with
// a pointer to the empty string clearing the column. Every reconciliation
// transition is expressed as one of these so applying it is one UPDATE with
// no read-modify-write gap.
type EntitlementUpdate struct {
	Status         string
	EndDate        *time.Time
	SubscriptionID *string
	CustomerID     *string
}
