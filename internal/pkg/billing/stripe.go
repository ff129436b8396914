package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/invoice"
	"github.com/stripe/stripe-go/v76/subscription"

	"github.com/Decoupled-Saas/nextpress/internal/pkg/env"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct{}

// NewStripeGateway configures the global Stripe client key and returns the
// gateway. The key is the secret key (sk_test_... / sk_live_...). An empty
// key is tolerated here; every call will then fail with
// ErrGatewayUnavailable instead of panicking at startup.
func NewStripeGateway(apiKey string) *StripeGateway {
	if key := strings.TrimSpace(apiKey); key != "" {
		stripe.Key = key
	}
	return &StripeGateway{}
}

// NewStripeGatewayFromEnv builds the gateway from STRIPE_SECRET_KEY.
func NewStripeGatewayFromEnv() *StripeGateway {
	return NewStripeGateway(env.GetEnv("STRIPE_SECRET_KEY", ""))
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		ClientReferenceID:  stripe.String(in.ClientReferenceID),
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	if in.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(in.IdempotencyKey)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, wrapGatewayErr("create checkout session", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*GatewaySubscription, error) {
	sub, err := subscription.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, wrapGatewayErr("retrieve subscription", err)
	}
	return normalizeSubscription(sub), nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := subscription.Cancel(subscriptionID, &stripe.SubscriptionCancelParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return wrapGatewayErr("cancel subscription", err)
	}
	return nil
}

func (g *StripeGateway) ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error) {
	if limit <= 0 {
		limit = 10
	}
	params := &stripe.InvoiceListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(int64(limit))},
		Customer:   stripe.String(customerID),
	}

	var out []Invoice
	it := invoice.List(params)
	for it.Next() {
		out = append(out, normalizeInvoice(it.Invoice()))
	}
	if err := it.Err(); err != nil {
		return nil, wrapGatewayErr("list invoices", err)
	}
	return out, nil
}

func normalizeSubscription(sub *stripe.Subscription) *GatewaySubscription {
	out := &GatewaySubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}

func normalizeInvoice(inv *stripe.Invoice) Invoice {
	out := Invoice{
		ID:               inv.ID,
		Number:           inv.Number,
		Status:           string(inv.Status),
		AmountDue:        inv.AmountDue,
		AmountPaid:       inv.AmountPaid,
		Currency:         string(inv.Currency),
		CreatedAt:        time.Unix(inv.Created, 0).UTC(),
		HostedInvoiceURL: inv.HostedInvoiceURL,
	}
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		paidAt := time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
		out.PaidAt = &paidAt
	}
	return out
}

func wrapGatewayErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, op, err)
}
