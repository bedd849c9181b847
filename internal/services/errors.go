package services

import (
	"errors"

	"storefront/internal/payment"
)

// Errors returned by the services. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidSignature = payment.ErrInvalidSignature
	ErrUpstream         = payment.ErrUpstream
)
