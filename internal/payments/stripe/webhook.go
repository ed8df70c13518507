package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"coursehub-backend/internal/payments"
)

// DefaultTolerance is the accepted clock skew for webhook timestamps.
const DefaultTolerance = 5 * time.Minute

// VerifyWebhookSignature validates a Stripe-Signature header against the payload.
// See https://stripe.com/docs/webhooks/signatures
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration) error {
	return verifyAt(payload, header, secret, tolerance, time.Now())
}

func verifyAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("stripe webhook secret is required")
	}

	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return errors.New("stripe signature header is missing required fields")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid stripe signature timestamp: %w", err)
	}

	if tolerance > 0 {
		diff := now.Unix() - ts
		if diff < 0 {
			diff = -diff
		}
		if diff > int64(tolerance.Seconds()) {
			return errors.New("stripe signature timestamp outside tolerance")
		}
	}

	expectedMAC := computeHMACSHA256([]byte(timestamp+"."+string(payload)), []byte(secret))
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expectedMAC) {
			return nil
		}
	}

	return errors.New("no matching stripe signature found")
}

// SignPayload builds a Stripe-Signature header value. Used by tests and
// local webhook replays.
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := computeHMACSHA256([]byte(timestamp+"."+string(payload)), []byte(secret))
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac)
}

// ParseEvent decodes a webhook body. Only checkout session events carry a
// session; other events are returned with an empty one.
func ParseEvent(payload []byte) (*payments.Event, error) {
	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("invalid stripe event: %w", err)
	}
	if envelope.Type == "" {
		return nil, errors.New("stripe event type is missing")
	}

	event := &payments.Event{ID: envelope.ID, Type: envelope.Type}
	if strings.HasPrefix(envelope.Type, "checkout.session.") && len(envelope.Data.Object) > 0 {
		var session sessionPayload
		if err := json.Unmarshal(envelope.Data.Object, &session); err != nil {
			return nil, fmt.Errorf("invalid checkout session in event: %w", err)
		}
		event.Session = *session.details()
	}
	return event, nil
}

func parseSignatureHeader(header string) (string, []string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}

	var (
		timestamp  string
		signatures []string
	)

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestamp = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			if sig := strings.TrimPrefix(part, "v1="); sig != "" {
				signatures = append(signatures, sig)
			}
		}
	}

	return timestamp, signatures
}

func computeHMACSHA256(message, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
