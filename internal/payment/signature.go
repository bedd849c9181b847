package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature means a payment proof or webhook could not be verified.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrUpstream means the gateway was unreachable or rejected the request.
	ErrUpstream = errors.New("payment gateway error")
)

// SignPayment returns the hex HMAC-SHA256 the gateway hands to the buyer's
// browser after a successful payment.
func SignPayment(gatewayOrderID, gatewayPaymentID, secret string) string {
	return hex.EncodeToString(paymentMAC(gatewayOrderID, gatewayPaymentID, secret))
}

// VerifyPaymentSignature checks a client-supplied payment signature in
// constant time.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, secret string) error {
	if gatewayOrderID == "" || gatewayPaymentID == "" {
		return fmt.Errorf("%w: missing gateway identifiers", ErrInvalidSignature)
	}
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	// Compared as lowercase hex text so that case changes also fail.
	expected := SignPayment(gatewayOrderID, gatewayPaymentID, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

func paymentMAC(gatewayOrderID, gatewayPaymentID, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return mac.Sum(nil)
}
