package entitlements

import (
	"testing"
	"time"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

func TestIsSubscriber(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	tests := []struct {
		name    string
		status  string
		endDate *time.Time
		want    bool
	}{
		{name: "active with future end", status: models.SubscriptionActive, endDate: &future, want: true},
		{name: "active with lapsed end", status: models.SubscriptionActive, endDate: &past, want: false},
		{name: "active without end date", status: models.SubscriptionActive, endDate: nil, want: false},
		{name: "free", status: models.SubscriptionFree, endDate: &future, want: false},
		{name: "inactive", status: models.SubscriptionInactive, endDate: &future, want: false},
		{name: "canceled", status: models.SubscriptionCanceled, endDate: &future, want: false},
	}

	for _, tt := range tests {
		if got := IsSubscriber(tt.status, tt.endDate, now); got != tt.want {
			t.Fatalf("%s: IsSubscriber = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCanViewRestricted(t *testing.T) {
	now := time.Now()

	if CanViewRestricted(nil, now) {
		t.Fatalf("expected nil user to be denied")
	}
	if !CanViewRestricted(&models.User{Role: models.ROLE_ADMIN}, now) {
		t.Fatalf("expected admin to bypass entitlement")
	}
	if !CanViewRestricted(&models.User{Role: models.ROLE_EDITOR}, now) {
		t.Fatalf("expected editor to bypass entitlement")
	}
	if CanViewRestricted(&models.User{Role: models.ROLE_USER, SubscriptionStatus: models.SubscriptionFree}, now) {
		t.Fatalf("expected free user to be denied")
	}

	end := now.Add(time.Hour)
	sub := &models.User{Role: models.ROLE_USER, SubscriptionStatus: models.SubscriptionActive, SubscriptionEndDate: &end}
	if !CanViewRestricted(sub, now) {
		t.Fatalf("expected active subscriber to be allowed")
	}
}
