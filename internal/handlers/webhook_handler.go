package handlers

import (
	"errors"

	"storefront/internal/payment"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookHandler receives server-to-server payment events.
type WebhookHandler struct {
	verifier *payment.WebhookVerifier
	service  *services.WebhookService
	logger   *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier *payment.WebhookVerifier, service *services.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		service:  service,
		logger:   logger,
	}
}

// RegisterRoutes registers the webhook route. It carries no user auth; the
// signature header is the authentication.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/payment", h.HandlePaymentEvent)
}

// HandlePaymentEvent verifies the raw body and applies the event. Anything
// that passes verification is acknowledged with an empty 200.
func (h *WebhookHandler) HandlePaymentEvent(c *fiber.Ctx) error {
	// c.Body is only valid for the lifetime of the handler.
	raw := append([]byte(nil), c.Body()...)

	event, err := h.verifier.Verify(raw, c.Get(payment.SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.logger.Warn("Rejected webhook", zap.String("ip", c.IP()), zap.Error(err))
			return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
		}
		h.logger.Error("Verified webhook body could not be decoded", zap.Error(err))
		return acknowledge(c)
	}

	outcome := h.service.HandleEvent(c.UserContext(), event)
	h.logger.Debug("Webhook handled", zap.String("event_id", event.ID), zap.String("outcome", string(outcome)))
	return acknowledge(c)
}

// acknowledge answers 200 with no body. SendStatus would write "OK".
func acknowledge(c *fiber.Ctx) error {
	c.Status(fiber.StatusOK)
	return nil
}
