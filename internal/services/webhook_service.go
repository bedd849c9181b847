package services

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/payment"

	"go.uber.org/zap"
)

// EventLedger remembers which webhook events were already handled.
// A claim is provisional until Commit. cache.EventLedger implements it on Redis.
type EventLedger interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Commit(ctx context.Context, eventID string) error
	Release(ctx context.Context, eventID string) error
}

// OrderSettler applies a verified payment to an order.
type OrderSettler interface {
	SettleByGatewayOrder(ctx context.Context, gatewayOrderID, gatewayPaymentID, source string) (*models.Order, error)
}

// WebhookOutcome says what happened to a verified event.
type WebhookOutcome string

const (
	OutcomeSettled   WebhookOutcome = "settled"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeUnmatched WebhookOutcome = "unmatched"
	OutcomeFailed    WebhookOutcome = "failed"
)

// WebhookService reconciles gateway events with local orders.
type WebhookService struct {
	settler OrderSettler
	ledger  EventLedger
	logger  *zap.Logger
}

// NewWebhookService creates a WebhookService. ledger may be nil, in which case
// duplicates are absorbed by the idempotent transition alone.
func NewWebhookService(settler OrderSettler, ledger EventLedger, logger *zap.Logger) *WebhookService {
	return &WebhookService{settler: settler, ledger: ledger, logger: logger}
}

// HandleEvent applies a verified event. It never returns an error: the
// gateway only needs to know the event was received, and every failure after
// verification is logged and acknowledged.
func (s *WebhookService) HandleEvent(ctx context.Context, event *payment.Event) WebhookOutcome {
	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	if !event.IsPaymentSucceeded() {
		log.Debug("Ignoring webhook event")
		return OutcomeIgnored
	}

	object := event.Data.Object
	if object.OrderID == "" || object.ID == "" {
		log.Warn("Webhook event has no order or payment id")
		return OutcomeIgnored
	}
	log = log.With(zap.String("gateway_order_id", object.OrderID), zap.String("payment_id", object.ID))

	claimed := false
	if s.ledger != nil && event.ID != "" {
		ok, err := s.ledger.Claim(ctx, event.ID)
		switch {
		case err != nil:
			log.Warn("Event ledger unavailable, relying on order state", zap.Error(err))
		case !ok:
			log.Info("Duplicate webhook event")
			return OutcomeDuplicate
		default:
			claimed = true
		}
	}

	order, err := s.settler.SettleByGatewayOrder(ctx, object.OrderID, object.ID, SourceWebhook)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("Webhook event for unknown order")
			if claimed {
				s.commit(ctx, log, event.ID)
			}
			return OutcomeUnmatched
		}
		log.Error("Failed to apply webhook event", zap.Error(err))
		if claimed {
			// Let the gateway's redelivery try again.
			if relErr := s.ledger.Release(ctx, event.ID); relErr != nil {
				log.Warn("Failed to release webhook event", zap.Error(relErr))
			}
		}
		return OutcomeFailed
	}

	if claimed {
		s.commit(ctx, log, event.ID)
	}
	log.Info("Webhook event applied", zap.String("order_id", order.ID))
	return OutcomeSettled
}

// commit failures only shorten how long the mark is kept; the order state
// still absorbs a later redelivery.
func (s *WebhookService) commit(ctx context.Context, log *zap.Logger, eventID string) {
	if err := s.ledger.Commit(ctx, eventID); err != nil {
		log.Warn("Failed to commit webhook event", zap.Error(err))
	}
}
