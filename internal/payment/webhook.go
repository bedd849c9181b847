package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "X-Webhook-Signature"

// Event types that prove a payment succeeded.
const (
	EventPaymentCaptured        = "payment.captured"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// Event is the envelope the gateway posts to the webhook endpoint.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

// EventData wraps the object the event is about.
type EventData struct {
	Object PaymentObject `json:"object"`
}

// PaymentObject is the gateway's view of a payment.
type PaymentObject struct {
	ID       string `json:"id"`       // gateway payment id
	OrderID  string `json:"order_id"` // gateway order id assigned at creation
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Created  int64  `json:"created"`
}

// IsPaymentSucceeded reports whether the event confirms a payment.
func (e *Event) IsPaymentSucceeded() bool {
	return e.Type == EventPaymentCaptured || e.Type == EventPaymentIntentSucceeded
}

// WebhookVerifier authenticates webhook deliveries.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the given webhook secret.
func NewWebhookVerifier(cfg config.WebhookConfig) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(cfg.Secret),
		tolerance: cfg.Tolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw request body and only
// then decodes the event. rawBody must be the bytes exactly as received.
func (v *WebhookVerifier) Verify(rawBody []byte, header string) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(timestamp, 0))
		if age > v.tolerance || age < -v.tolerance {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}

	expected := computeWebhookSignature(v.secret, timestamp, rawBody)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no matching webhook signature", ErrInvalidSignature)
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	return &event, nil
}

// SignWebhook builds a signature header value for body at the given time.
// The gateway does this on its side; tests and local tooling use it too.
func SignWebhook(secret string, timestamp time.Time, body []byte) string {
	ts := timestamp.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeWebhookSignature([]byte(secret), ts, body))
}

func computeWebhookSignature(secret []byte, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>]".
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	var (
		timestamp  int64
		haveTS     bool
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
			}
			timestamp, haveTS = ts, true
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if !haveTS {
		return 0, nil, fmt.Errorf("%w: missing timestamp", ErrInvalidSignature)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: missing v1 signature", ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}
