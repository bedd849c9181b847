package payment

import (
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

var testEventBody = []byte(`{"id":"evt_1","type":"payment.captured","created":1700000000,"data":{"object":{"id":"pay_1","order_id":"order_1","status":"captured","amount":17000,"currency":"INR"}}}`)

func newTestVerifier(now time.Time) *WebhookVerifier {
	v := NewWebhookVerifier(config.WebhookConfig{Secret: testWebhookSecret, Tolerance: 5 * time.Minute})
	v.now = func() time.Time { return now }
	return v
}

func TestWebhookVerifier_Valid(t *testing.T) {
	now := time.Unix(1700000100, 0)
	v := newTestVerifier(now)

	header := SignWebhook(testWebhookSecret, now, testEventBody)
	event, err := v.Verify(testEventBody, header)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.True(t, event.IsPaymentSucceeded())
	assert.Equal(t, "pay_1", event.Data.Object.ID)
	assert.Equal(t, "order_1", event.Data.Object.OrderID)
}

func TestWebhookVerifier_AcceptsAnyMatchingV1(t *testing.T) {
	now := time.Unix(1700000100, 0)
	v := newTestVerifier(now)

	header := SignWebhook(testWebhookSecret, now, testEventBody)
	header = "t=1700000100,v1=deadbeef," + header[len("t=1700000100,"):]

	_, err := v.Verify(testEventBody, header)
	assert.NoError(t, err)
}

func TestWebhookVerifier_Rejects(t *testing.T) {
	now := time.Unix(1700000100, 0)
	v := newTestVerifier(now)
	valid := SignWebhook(testWebhookSecret, now, testEventBody)

	// Same JSON with different whitespace must not verify.
	reserialized := []byte(`{"id": "evt_1","type":"payment.captured","created":1700000000,"data":{"object":{"id":"pay_1","order_id":"order_1","status":"captured","amount":17000,"currency":"INR"}}}`)

	tests := []struct {
		name   string
		body   []byte
		header string
	}{
		{"missing header", testEventBody, ""},
		{"wrong secret", testEventBody, SignWebhook("other", now, testEventBody)},
		{"tampered body", []byte(`{"id":"evt_1","type":"payment.captured"}`), valid},
		{"re-serialized body", reserialized, valid},
		{"stale timestamp", testEventBody, SignWebhook(testWebhookSecret, now.Add(-10*time.Minute), testEventBody)},
		{"future timestamp", testEventBody, SignWebhook(testWebhookSecret, now.Add(10*time.Minute), testEventBody)},
		{"no timestamp", testEventBody, "v1=abc"},
		{"bad timestamp", testEventBody, "t=yesterday,v1=abc"},
		{"no signature", testEventBody, "t=1700000100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.body, tt.header)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestWebhookVerifier_UndecodableBodyIsNotASignatureError(t *testing.T) {
	now := time.Unix(1700000100, 0)
	v := newTestVerifier(now)
	body := []byte("not json")

	_, err := v.Verify(body, SignWebhook(testWebhookSecret, now, body))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}
