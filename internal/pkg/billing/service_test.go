package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

type fakeStore struct {
	users     map[uint]*models.User
	plans     []models.SubscriptionPlan
	applied   int
	failApply error
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) GetUserByID(id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) GetUserBySubscriptionID(subID string) (*models.User, error) {
	for _, u := range s.users {
		if u.StripeSubscriptionID == subID {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) ApplyEntitlement(userID uint, update EntitlementUpdate) error {
	if s.failApply != nil {
		return s.failApply
	}
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	s.applied++
	u.SubscriptionStatus = update.Status
	u.SubscriptionEndDate = update.EndDate
	if update.SubscriptionID != nil {
		u.StripeSubscriptionID = *update.SubscriptionID
	}
	if update.CustomerID != nil {
		u.StripeCustomerID = *update.CustomerID
	}
	return nil
}

func (s *fakeStore) GetPlanByID(id uint) (*models.SubscriptionPlan, error) {
	for i := range s.plans {
		if s.plans[i].ID == id {
			return &s.plans[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) GetPlanByPriceID(priceID string) (*models.SubscriptionPlan, error) {
	for i := range s.plans {
		if s.plans[i].StripePriceID == priceID {
			return &s.plans[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) ListPlans() ([]models.SubscriptionPlan, error) {
	return s.plans, nil
}

type fakeGateway struct {
	session    *CheckoutSession
	lastInput  CheckoutSessionInput
	subs       map[string]*GatewaySubscription
	canceled   []string
	invoices   []Invoice
	failGet    error
	failCancel error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	g.lastInput = in
	if g.session == nil {
		return &CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
	}
	return g.session, nil
}

func (g *fakeGateway) GetSubscription(_ context.Context, id string) (*GatewaySubscription, error) {
	if g.failGet != nil {
		return nil, g.failGet
	}
	if sub, ok := g.subs[id]; ok {
		return sub, nil
	}
	return nil, fmt.Errorf("%w: no such subscription %s", ErrGatewayUnavailable, id)
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string) error {
	if g.failCancel != nil {
		return g.failCancel
	}
	g.canceled = append(g.canceled, id)
	return nil
}

func (g *fakeGateway) ListInvoices(_ context.Context, _ string, _ int) ([]Invoice, error) {
	return g.invoices, nil
}

func checkoutEvent(t *testing.T, payload string) *stripe.Event {
	t.Helper()
	return &stripe.Event{
		ID:   "evt_test",
		Type: stripe.EventType(EventCheckoutCompleted),
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func subscriptionEvent(t *testing.T, eventType, payload string) *stripe.Event {
	t.Helper()
	return &stripe.Event{
		ID:   "evt_test",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

var periodEnd = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

func activeGatewaySub(id string) *GatewaySubscription {
	return &GatewaySubscription{
		ID:               id,
		Status:           GatewayStatusActive,
		CustomerID:       "cus_1",
		CurrentPeriodEnd: periodEnd,
	}
}

func TestCheckoutUnknownPlan(t *testing.T) {
	store := newFakeStore(&models.User{ID: 7, Email: "a@example.com"})
	svc := NewService(store, &fakeGateway{}, Config{})

	_, err := svc.Checkout(context.Background(), store.users[7], 99)
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestCheckoutCreatesGatewaySession(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com"}
	store := newFakeStore(user)
	store.plans = []models.SubscriptionPlan{{ID: 1, Name: "Pro", StripePriceID: "price_1"}}
	gw := &fakeGateway{}
	svc := NewService(store, gw, Config{SuccessURL: "https://app/success", CancelURL: "https://app/cancel"})

	session, err := svc.Checkout(context.Background(), user, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.URL == "" {
		t.Fatal("expected a redirect URL")
	}
	if gw.lastInput.PriceID != "price_1" {
		t.Errorf("price id = %q, want price_1", gw.lastInput.PriceID)
	}
	if gw.lastInput.ClientReferenceID != "7" {
		t.Errorf("client reference = %q, want the account id", gw.lastInput.ClientReferenceID)
	}
	if gw.lastInput.IdempotencyKey == "" {
		t.Error("expected an idempotency key")
	}
	if store.applied != 0 {
		t.Errorf("checkout wrote local state %d times, want 0", store.applied)
	}
}

func TestCancelRequiresActiveSubscription(t *testing.T) {
	user := &models.User{ID: 7, SubscriptionStatus: models.SubscriptionFree}
	store := newFakeStore(user)
	gw := &fakeGateway{}
	svc := NewService(store, gw, Config{})

	if err := svc.Cancel(context.Background(), 7); !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("expected ErrNoActiveSubscription, got %v", err)
	}
	if len(gw.canceled) != 0 || store.applied != 0 {
		t.Error("cancel without an active subscription must not touch anything")
	}
}

func TestCancelGatewayFailureLeavesStateUntouched(t *testing.T) {
	end := periodEnd
	user := &models.User{
		ID:                   7,
		SubscriptionStatus:   models.SubscriptionActive,
		SubscriptionEndDate:  &end,
		StripeSubscriptionID: "sub_1",
	}
	store := newFakeStore(user)
	gw := &fakeGateway{failCancel: fmt.Errorf("%w: timeout", ErrGatewayUnavailable)}
	svc := NewService(store, gw, Config{})

	if err := svc.Cancel(context.Background(), 7); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionActive || user.StripeSubscriptionID != "sub_1" {
		t.Error("failed gateway cancel must not change local state")
	}
}

func TestCancelOverwritesLocalState(t *testing.T) {
	end := periodEnd
	user := &models.User{
		ID:                   7,
		SubscriptionStatus:   models.SubscriptionActive,
		SubscriptionEndDate:  &end,
		StripeSubscriptionID: "sub_1",
		StripeCustomerID:     "cus_1",
	}
	store := newFakeStore(user)
	gw := &fakeGateway{}
	svc := NewService(store, gw, Config{})

	if err := svc.Cancel(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gw.canceled) != 1 || gw.canceled[0] != "sub_1" {
		t.Errorf("canceled = %v, want [sub_1]", gw.canceled)
	}
	if user.SubscriptionStatus != models.SubscriptionCanceled {
		t.Errorf("status = %q, want canceled", user.SubscriptionStatus)
	}
	if user.SubscriptionEndDate != nil {
		t.Error("end date should be cleared")
	}
	if user.StripeSubscriptionID != "" {
		t.Error("subscription id should be cleared")
	}
	if user.StripeCustomerID != "cus_1" {
		t.Error("customer id should be kept for future checkouts")
	}
}

func TestCheckoutCompletedActivates(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com", SubscriptionStatus: models.SubscriptionFree}
	store := newFakeStore(user)
	gw := &fakeGateway{subs: map[string]*GatewaySubscription{"sub_1": activeGatewaySub("sub_1")}}
	svc := NewService(store, gw, Config{})

	event := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","client_reference_id":"7"}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("status = %q, want active", user.SubscriptionStatus)
	}
	if user.SubscriptionEndDate == nil || !user.SubscriptionEndDate.Equal(periodEnd) {
		t.Errorf("end date = %v, want %v", user.SubscriptionEndDate, periodEnd)
	}
	if user.StripeSubscriptionID != "sub_1" {
		t.Errorf("subscription id = %q, want sub_1", user.StripeSubscriptionID)
	}
	if user.StripeCustomerID != "cus_1" {
		t.Errorf("customer id = %q, want cus_1", user.StripeCustomerID)
	}
}

func TestCheckoutCompletedIsIdempotent(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com"}
	store := newFakeStore(user)
	gw := &fakeGateway{subs: map[string]*GatewaySubscription{"sub_1": activeGatewaySub("sub_1")}}
	svc := NewService(store, gw, Config{})

	event := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","client_reference_id":"7"}`)
	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("status = %q, want active", user.SubscriptionStatus)
	}
	if user.SubscriptionEndDate == nil || !user.SubscriptionEndDate.Equal(periodEnd) {
		t.Errorf("end date = %v, want %v", user.SubscriptionEndDate, periodEnd)
	}
}

func TestActivationNotifiesOnce(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com"}
	store := newFakeStore(user)
	store.plans = []models.SubscriptionPlan{{ID: 1, Name: "Pro", StripePriceID: "price_1"}}
	sub := activeGatewaySub("sub_1")
	sub.PriceID = "price_1"
	gw := &fakeGateway{subs: map[string]*GatewaySubscription{"sub_1": sub}}
	svc := NewService(store, gw, Config{})

	var notified []string
	svc.SetNotifier(func(u *models.User, planName string) {
		notified = append(notified, planName)
	})

	event := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","client_reference_id":"7"}`)
	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}
	if len(notified) != 1 {
		t.Fatalf("notifier fired %d times, want 1", len(notified))
	}
	if notified[0] != "Pro" {
		t.Errorf("plan name = %q, want Pro", notified[0])
	}
}

func TestCheckoutCompletedFallsBackToEmail(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com"}
	store := newFakeStore(user)
	gw := &fakeGateway{subs: map[string]*GatewaySubscription{"sub_1": activeGatewaySub("sub_1")}}
	svc := NewService(store, gw, Config{})

	event := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","customer_details":{"email":"a@example.com"}}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("status = %q, want active", user.SubscriptionStatus)
	}
}

func TestCheckoutCompletedUnresolvableIsAcknowledged(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{subs: map[string]*GatewaySubscription{"sub_1": activeGatewaySub("sub_1")}}
	svc := NewService(store, gw, Config{})

	event := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","client_reference_id":"999"}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unresolvable correlation must be acknowledged, got %v", err)
	}
	if store.applied != 0 {
		t.Error("unresolvable event must not write state")
	}
}

func TestCheckoutCompletedGatewayFailurePropagates(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com"}
	store := newFakeStore(user)
	gw := &fakeGateway{failGet: fmt.Errorf("%w: timeout", ErrGatewayUnavailable)}
	svc := NewService(store, gw, Config{})

	event := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","client_reference_id":"7"}`)
	if err := svc.HandleEvent(context.Background(), event); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway error for redelivery, got %v", err)
	}
	if store.applied != 0 {
		t.Error("no state may be written when the gateway lookup fails")
	}
}

func TestSubscriptionUpdatedActive(t *testing.T) {
	user := &models.User{ID: 7, SubscriptionStatus: models.SubscriptionFree}
	store := newFakeStore(user)
	svc := NewService(store, &fakeGateway{}, Config{})

	payload := `{"id":"sub_1","status":"active","current_period_end":1738368000,"customer":"cus_1","metadata":{"user_id":"7"}}`
	event := subscriptionEvent(t, EventSubscriptionUpdated, payload)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("status = %q, want active", user.SubscriptionStatus)
	}
	if user.SubscriptionEndDate == nil || !user.SubscriptionEndDate.Equal(periodEnd) {
		t.Errorf("end date = %v, want %v", user.SubscriptionEndDate, periodEnd)
	}
	if user.StripeSubscriptionID != "sub_1" || user.StripeCustomerID != "cus_1" {
		t.Errorf("ids = %q/%q, want sub_1/cus_1", user.StripeSubscriptionID, user.StripeCustomerID)
	}
}

func TestSubscriptionDeletedEndsEntitlement(t *testing.T) {
	end := periodEnd
	user := &models.User{
		ID:                   7,
		SubscriptionStatus:   models.SubscriptionActive,
		SubscriptionEndDate:  &end,
		StripeSubscriptionID: "sub_1",
	}
	store := newFakeStore(user)
	svc := NewService(store, &fakeGateway{}, Config{})

	payload := `{"id":"sub_1","status":"canceled","metadata":{"user_id":"7"}}`
	event := subscriptionEvent(t, EventSubscriptionDeleted, payload)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionInactive {
		t.Errorf("status = %q, want inactive", user.SubscriptionStatus)
	}
	if user.SubscriptionEndDate != nil {
		t.Error("end date should be cleared")
	}
	if user.StripeSubscriptionID != "sub_1" {
		t.Error("subscription id should survive deletion for audit")
	}
}

func TestSubscriptionResolvedBySubscriptionID(t *testing.T) {
	user := &models.User{
		ID:                   7,
		SubscriptionStatus:   models.SubscriptionActive,
		StripeSubscriptionID: "sub_1",
	}
	store := newFakeStore(user)
	svc := NewService(store, &fakeGateway{}, Config{})

	// No usable metadata; the stored external id is the only correlation.
	payload := `{"id":"sub_1","status":"past_due"}`
	event := subscriptionEvent(t, EventSubscriptionUpdated, payload)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionInactive {
		t.Errorf("status = %q, want inactive", user.SubscriptionStatus)
	}
}

func TestDeleteIsTerminalUnderRedelivery(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com"}
	store := newFakeStore(user)
	gw := &fakeGateway{subs: map[string]*GatewaySubscription{"sub_1": activeGatewaySub("sub_1")}}
	svc := NewService(store, gw, Config{})

	ctx := context.Background()
	updated := subscriptionEvent(t, EventSubscriptionUpdated,
		`{"id":"sub_1","status":"active","current_period_end":1738368000,"metadata":{"user_id":"7"}}`)
	deleted := subscriptionEvent(t, EventSubscriptionDeleted,
		`{"id":"sub_1","status":"canceled","metadata":{"user_id":"7"}}`)

	for _, ev := range []*stripe.Event{updated, deleted, deleted} {
		if err := svc.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if user.SubscriptionStatus != models.SubscriptionInactive {
		t.Fatalf("status = %q, want inactive", user.SubscriptionStatus)
	}

	// A stale checkout completion redelivered after deletion consults live
	// gateway state and must not resurrect the entitlement.
	gw.subs["sub_1"].Status = "canceled"
	stale := checkoutEvent(t, `{"id":"cs_1","mode":"subscription","subscription":"sub_1","client_reference_id":"7"}`)
	if err := svc.HandleEvent(ctx, stale); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.SubscriptionStatus != models.SubscriptionInactive {
		t.Errorf("status = %q after stale checkout redelivery, want inactive", user.SubscriptionStatus)
	}
}

func TestUnknownEventAcknowledged(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeGateway{}, Config{})

	event := &stripe.Event{
		ID:   "evt_test",
		Type: "invoice.payment_succeeded",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown event types must be acknowledged, got %v", err)
	}
	if store.applied != 0 {
		t.Error("unknown events must not write state")
	}
}

func TestEventWithoutDataAcknowledged(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeGateway{}, Config{})

	for _, eventType := range []string{
		EventCheckoutCompleted,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted,
	} {
		event := &stripe.Event{ID: "evt_no_data", Type: stripe.EventType(eventType)}
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("%s without data must be acknowledged, got %v", eventType, err)
		}
	}
	if store.applied != 0 {
		t.Error("events without data must not write state")
	}
}

func TestEntitlementDegradesWithoutGateway(t *testing.T) {
	end := periodEnd
	user := &models.User{
		ID:                   7,
		SubscriptionStatus:   models.SubscriptionActive,
		SubscriptionEndDate:  &end,
		StripeSubscriptionID: "sub_1",
	}
	store := newFakeStore(user)
	store.plans = []models.SubscriptionPlan{{ID: 1, Name: "Pro"}}
	gw := &fakeGateway{failGet: fmt.Errorf("%w: timeout", ErrGatewayUnavailable)}
	svc := NewService(store, gw, Config{})

	info, err := svc.Entitlement(context.Background(), 7)
	if err != nil {
		t.Fatalf("gateway outage must degrade, not fail: %v", err)
	}
	if info.Status != models.SubscriptionActive {
		t.Errorf("status = %q, want active", info.Status)
	}
	if info.Gateway != nil {
		t.Error("no gateway snapshot expected during an outage")
	}
	if len(info.Plans) != 1 {
		t.Errorf("plans = %d, want 1", len(info.Plans))
	}
}

func TestEntitlementIncludesGatewaySnapshot(t *testing.T) {
	user := &models.User{
		ID:                   7,
		SubscriptionStatus:   models.SubscriptionActive,
		StripeSubscriptionID: "sub_1",
		StripeCustomerID:     "cus_1",
	}
	store := newFakeStore(user)
	gw := &fakeGateway{
		subs:     map[string]*GatewaySubscription{"sub_1": activeGatewaySub("sub_1")},
		invoices: []Invoice{{ID: "in_1", Status: "paid", AmountPaid: 999}},
	}
	svc := NewService(store, gw, Config{})

	info, err := svc.Entitlement(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Gateway == nil || info.Gateway.ID != "sub_1" {
		t.Fatalf("gateway snapshot = %+v, want sub_1", info.Gateway)
	}
	if len(info.Invoices) != 1 || info.Invoices[0].ID != "in_1" {
		t.Errorf("invoices = %+v, want one paid invoice", info.Invoices)
	}
}
