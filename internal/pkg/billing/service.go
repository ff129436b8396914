package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// Config holds the redirect targets handed to the gateway when a checkout
// session is created.
type Config struct {
	SuccessURL string
	CancelURL  string
}

// Service is the reconciliation engine plus the synchronous checkout and
// cancellation initiators. Webhook transitions are pure overwrites keyed by
// the external subscription id, which makes at-least-once, out-of-order
// delivery safe without locking.
type Service struct {
	store   Store
	gateway Gateway
	cfg     Config

	// notify, when set, is called after an account's subscription first
	// becomes active. It must not block webhook processing.
	notify func(user *models.User, planName string)
}

// NewService creates a billing service from injected dependencies.
func NewService(store Store, gateway Gateway, cfg Config) *Service {
	return &Service{store: store, gateway: gateway, cfg: cfg}
}

// NewServiceFromDB creates a billing service from a GORM handle.
func NewServiceFromDB(db *gorm.DB, gateway Gateway, cfg Config) *Service {
	return NewService(NewStore(db), gateway, cfg)
}

// SetNotifier installs a callback fired when a subscription is activated.
func (s *Service) SetNotifier(fn func(user *models.User, planName string)) {
	s.notify = fn
}

// Checkout starts a subscription purchase for the given account. It validates
// the plan, creates a gateway checkout session carrying the account id as
// correlation, and returns the opaque session handle. No local state is
// written: entitlement is granted only on confirmed webhook receipt.
func (s *Service) Checkout(ctx context.Context, user *models.User, planID uint) (*CheckoutSession, error) {
	plan, err := s.store.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidPlan
		}
		return nil, err
	}

	return s.gateway.CreateCheckoutSession(ctx, CheckoutSessionInput{
		PriceID:           plan.StripePriceID,
		ClientReferenceID: strconv.FormatUint(uint64(user.ID), 10),
		CustomerID:        user.StripeCustomerID,
		CustomerEmail:     user.Email,
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		IdempotencyKey:    uuid.NewString(),
	})
}

// Cancel terminates the account's active subscription at the gateway, then
// overwrites local state to canceled with cleared end date and external
// subscription id. If the gateway call fails local state is left untouched,
// so the local record never claims a cancellation that never reached the
// gateway.
func (s *Service) Cancel(ctx context.Context, userID uint) error {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.SubscriptionStatus != models.SubscriptionActive || user.StripeSubscriptionID == "" {
		return ErrNoActiveSubscription
	}

	if err := s.gateway.CancelSubscription(ctx, user.StripeSubscriptionID); err != nil {
		return err
	}

	cleared := ""
	return s.store.ApplyEntitlement(user.ID, EntitlementUpdate{
		Status:         models.SubscriptionCanceled,
		EndDate:        nil,
		SubscriptionID: &cleared,
	})
}

// HandleEvent applies one verified gateway notification. Business-level
// mismatches (unknown event type, unresolvable correlation) are logged
// no-ops returning nil so the webhook endpoint acknowledges them and the
// gateway stops redelivering; only transient failures (gateway or store
// unavailable) return an error.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	// A signed event without a data object can never be applied; retrying
	// won't change that, so it is acknowledged like any malformed payload.
	if event.Data == nil {
		log.Printf("billing: event %s (%s) carries no data object", event.ID, event.Type)
		return nil
	}
	switch string(event.Type) {
	case EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		return s.applySubscriptionChange(ctx, event)
	default:
		log.Printf("billing: ignoring unhandled event type %q (id=%s)", event.Type, event.ID)
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		log.Printf("billing: malformed checkout session payload (id=%s): %v", event.ID, err)
		return nil
	}
	if cs.Mode != "" && cs.Mode != stripe.CheckoutSessionModeSubscription {
		log.Printf("billing: ignoring non-subscription checkout %s", cs.ID)
		return nil
	}

	subscriptionID := ""
	if cs.Subscription != nil {
		subscriptionID = cs.Subscription.ID
	}
	if subscriptionID == "" {
		log.Printf("billing: checkout %s completed without a subscription id", cs.ID)
		return nil
	}

	// The event only carries the subscription reference; the authoritative
	// period end comes from the gateway itself.
	sub, err := s.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	user, err := s.resolveCheckoutAccount(&cs)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("billing: no local account for checkout %s (client_reference_id=%q)", cs.ID, cs.ClientReferenceID)
		return nil
	}

	// The fetched state is live truth, so a redelivered checkout event for a
	// subscription that has since ended records the account as inactive
	// instead of resurrecting it.
	update := EntitlementUpdate{
		Status:         models.SubscriptionInactive,
		SubscriptionID: &subscriptionID,
	}
	if sub.Status == GatewayStatusActive {
		end := sub.CurrentPeriodEnd
		update.Status = models.SubscriptionActive
		update.EndDate = &end
	}
	if customerID := checkoutCustomerID(&cs, sub); customerID != "" {
		update.CustomerID = &customerID
	}

	firstActivation := update.Status == models.SubscriptionActive &&
		user.SubscriptionStatus != models.SubscriptionActive
	if err := s.store.ApplyEntitlement(user.ID, update); err != nil {
		return err
	}
	if firstActivation && s.notify != nil {
		s.notify(user, s.planName(sub.PriceID))
	}
	return nil
}

// planName resolves a gateway price id to the local plan name, falling back
// to a generic label for prices created outside the admin surface.
func (s *Service) planName(priceID string) string {
	if priceID != "" {
		if plan, err := s.store.GetPlanByPriceID(priceID); err == nil {
			return plan.Name
		}
	}
	return "your subscription"
}

func (s *Service) applySubscriptionChange(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		log.Printf("billing: malformed subscription payload (id=%s): %v", event.ID, err)
		return nil
	}

	user, err := s.resolveSubscriptionAccount(&sub)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("billing: no local account for subscription %s", sub.ID)
		return nil
	}

	if string(sub.Status) == GatewayStatusActive {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		id := sub.ID
		update := EntitlementUpdate{
			Status:         models.SubscriptionActive,
			EndDate:        &end,
			SubscriptionID: &id,
		}
		if sub.Customer != nil && sub.Customer.ID != "" {
			customerID := sub.Customer.ID
			update.CustomerID = &customerID
		}
		return s.store.ApplyEntitlement(user.ID, update)
	}

	// Non-active: entitlement ends. The stored external subscription id is
	// left as-is here; only the in-app cancellation path clears it.
	return s.store.ApplyEntitlement(user.ID, EntitlementUpdate{
		Status:  models.SubscriptionInactive,
		EndDate: nil,
	})
}

// resolveCheckoutAccount matches a completed checkout back to a local
// account via the correlating identifier captured at checkout time: the
// client reference (numeric account id, or an email on older sessions),
// falling back to the checkout's customer email. Returns (nil, nil) when no
// account matches.
func (s *Service) resolveCheckoutAccount(cs *stripe.CheckoutSession) (*models.User, error) {
	ref := strings.TrimSpace(cs.ClientReferenceID)
	if ref != "" {
		if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
			user, err := s.store.GetUserByID(uint(id))
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		} else if strings.Contains(ref, "@") {
			user, err := s.store.GetUserByEmail(ref)
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
	}

	email := cs.CustomerEmail
	if email == "" && cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}
	if email != "" {
		user, err := s.store.GetUserByEmail(email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// resolveSubscriptionAccount prefers the user id the checkout flow stamped
// into subscription metadata, then falls back to a reverse lookup by the
// stored external subscription id.
func (s *Service) resolveSubscriptionAccount(sub *stripe.Subscription) (*models.User, error) {
	if ref := strings.TrimSpace(sub.Metadata["user_id"]); ref != "" {
		if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
			user, err := s.store.GetUserByID(uint(id))
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
	}

	user, err := s.store.GetUserBySubscriptionID(sub.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return nil, nil
}

func checkoutCustomerID(cs *stripe.CheckoutSession, sub *GatewaySubscription) string {
	if sub != nil && sub.CustomerID != "" {
		return sub.CustomerID
	}
	if cs.Customer != nil {
		return cs.Customer.ID
	}
	return ""
}

// EntitlementInfo is the read-through merge of local entitlement state and
// the gateway's view, returned by the entitlement query endpoint.
type EntitlementInfo struct {
	Status   string
	EndDate  *time.Time
	Plans    []models.SubscriptionPlan
	Gateway  *GatewaySubscription
	Invoices []Invoice
}

// Entitlement returns the account's current status and end date plus the
// plan catalog. When an external subscription id is present it also fetches
// a live gateway snapshot with recent invoice history. Gateway failures
// degrade to local-only data with a logged warning: local state answers
// entitlement checks, gateway state only enriches display.
func (s *Service) Entitlement(ctx context.Context, userID uint) (*EntitlementInfo, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	plans, err := s.store.ListPlans()
	if err != nil {
		return nil, err
	}

	info := &EntitlementInfo{
		Status:  user.SubscriptionStatus,
		EndDate: user.SubscriptionEndDate,
		Plans:   plans,
	}

	if user.StripeSubscriptionID == "" {
		return info, nil
	}

	snapshot, err := s.gateway.GetSubscription(ctx, user.StripeSubscriptionID)
	if err != nil {
		log.Printf("billing: gateway snapshot unavailable for user %d: %v", userID, err)
		return info, nil
	}
	info.Gateway = snapshot

	customerID := user.StripeCustomerID
	if customerID == "" {
		customerID = snapshot.CustomerID
	}
	if customerID != "" {
		invoices, err := s.gateway.ListInvoices(ctx, customerID, 10)
		if err != nil {
			log.Printf("billing: invoice history unavailable for user %d: %v", userID, err)
		} else {
			info.Invoices = invoices
		}
	}
	return info, nil
}
