package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a signed webhook timestamp may be.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature authenticates a gateway notification against the
// shared webhook secret. The header carries a unix timestamp and one or more
// HMAC-SHA256 signatures in the form "t=<ts>,v1=<hex>[,v1=<hex>...]"; the
// signed payload is "<ts>.<raw body>". Verification operates on the exact
// raw bytes; parsing or reserializing the body first would invalidate the
// check. Any missing or malformed input fails closed.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string, tolerance time.Duration, now time.Time) bool {
	header := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if header == "" || secret == "" {
		return false
	}

	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	if tolerance > 0 {
		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return false
		}
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return false
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(strings.ToLower(sig))
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			return true
		}
	}
	return false
}

func parseSignatureHeader(header string) (timestamp string, signatures []string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			if kv[1] != "" {
				signatures = append(signatures, kv[1])
			}
		}
	}
	return timestamp, signatures
}
