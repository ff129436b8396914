package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureHeader(secret string, ts time.Time, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), signPayload(secret, ts, payload))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		want    bool
	}{
		{
			name:    "valid signature",
			payload: payload,
			header:  signatureHeader(secret, now, payload),
			secret:  secret,
			want:    true,
		},
		{
			name:    "tampered payload",
			payload: []byte(`{"id":"evt_1","type":"customer.subscription.deleted"}`),
			header:  signatureHeader(secret, now, payload),
			secret:  secret,
			want:    false,
		},
		{
			name:    "wrong secret",
			payload: payload,
			header:  signatureHeader("whsec_other", now, payload),
			secret:  secret,
			want:    false,
		},
		{
			name:    "expired timestamp",
			payload: payload,
			header:  signatureHeader(secret, now.Add(-10*time.Minute), payload),
			secret:  secret,
			want:    false,
		},
		{
			name:    "timestamp from the future",
			payload: payload,
			header:  signatureHeader(secret, now.Add(10*time.Minute), payload),
			secret:  secret,
			want:    false,
		},
		{
			name:    "slightly stale timestamp within tolerance",
			payload: payload,
			header:  signatureHeader(secret, now.Add(-2*time.Minute), payload),
			secret:  secret,
			want:    true,
		},
		{
			name:    "missing header",
			payload: payload,
			header:  "",
			secret:  secret,
			want:    false,
		},
		{
			name:    "missing secret",
			payload: payload,
			header:  signatureHeader(secret, now, payload),
			secret:  "",
			want:    false,
		},
		{
			name:    "garbage header",
			payload: payload,
			header:  "not-a-signature",
			secret:  secret,
			want:    false,
		},
		{
			name:    "non-numeric timestamp",
			payload: payload,
			header:  "t=abc,v1=" + signPayload(secret, now, payload),
			secret:  secret,
			want:    false,
		},
		{
			name:    "one valid among rotated signatures",
			payload: payload,
			header: fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(),
				signPayload("whsec_old", now, payload),
				signPayload(secret, now, payload)),
			secret: secret,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyWebhookSignature(tt.payload, tt.header, tt.secret, DefaultSignatureTolerance, now)
			if got != tt.want {
				t.Errorf("VerifyWebhookSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
