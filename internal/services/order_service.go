package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentGateway mints gateway-side orders.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*payment.GatewayOrder, error)
}

// Catalog resolves checkout lines into price/name snapshots.
type Catalog interface {
	SnapshotItems(lines []LineItem) ([]models.OrderItem, error)
}

// EventPublisher publishes order events. rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// CreateOrderInput is a checkout request from an authenticated buyer.
type CreateOrderInput struct {
	Items      []LineItem
	Address    models.Address
	TotalPrice float64
}

// CreatedOrder is what the browser needs to open the gateway's checkout.
type CreatedOrder struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// ConfirmPaymentInput is the payment proof posted back by the browser.
type ConfirmPaymentInput struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// orderEvent is the body of order.created / order.paid messages.
type orderEvent struct {
	OrderID        string               `json:"orderId"`
	GatewayOrderID string               `json:"gatewayOrderId"`
	BuyerEmail     string               `json:"buyerEmail"`
	Amount         int64                `json:"amount"`
	Currency       string               `json:"currency"`
	PaymentStatus  models.PaymentStatus `json:"paymentStatus"`
	PaymentID      string               `json:"paymentId,omitempty"`
	Source         string               `json:"source,omitempty"`
}

// Sources of a payment confirmation, used in logs and events.
const (
	SourceClient  = "client"
	SourceWebhook = "webhook"
)

// OrderService drives an order through Pending -> Paid.
type OrderService struct {
	orderRepo repositories.OrderRepository
	catalog   Catalog
	gateway   PaymentGateway
	publisher EventPublisher
	keySecret string
	currency  string
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	catalog Catalog,
	gateway PaymentGateway,
	publisher EventPublisher,
	cfg config.GatewayConfig,
	logger *zap.Logger,
) *OrderService {
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{
		orderRepo: orderRepo,
		catalog:   catalog,
		gateway:   gateway,
		publisher: publisher,
		keySecret: cfg.KeySecret,
		currency:  currency,
		validate:  validator.New(),
		logger:    logger,
	}
}

// CreateOrder validates the checkout, creates the gateway order and only then
// persists the local Pending order, so a gateway failure leaves nothing behind.
func (s *OrderService) CreateOrder(ctx context.Context, requester models.Requester, input CreateOrderInput) (*CreatedOrder, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: no order items", ErrValidation)
	}
	if err := s.validate.Struct(input.Address); err != nil {
		return nil, fmt.Errorf("%w: incomplete address: %v", ErrValidation, err)
	}
	if requester.Email == "" {
		return nil, fmt.Errorf("%w: requester has no email", ErrValidation)
	}

	items, err := s.catalog.SnapshotItems(input.Items)
	if err != nil {
		return nil, err
	}

	amount, err := toMinorUnits(input.TotalPrice)
	if err != nil {
		return nil, err
	}
	if derived := itemsMinorUnits(items); derived != amount {
		return nil, fmt.Errorf("%w: total price %.2f does not match order items", ErrValidation, input.TotalPrice)
	}

	now := time.Now().UTC()
	receipt := fmt.Sprintf("receipt_%d", now.UnixMilli())
	gatewayOrder, err := s.gateway.CreateOrder(ctx, amount, s.currency, receipt)
	if err != nil {
		s.logger.Error("Failed to create gateway order",
			zap.String("buyer", requester.Email),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, fmt.Errorf("%w: could not create gateway order: %v", ErrUpstream, err)
	}
	if gatewayOrder.Amount == 0 {
		gatewayOrder.Amount = amount
	}
	if gatewayOrder.Currency == "" {
		gatewayOrder.Currency = s.currency
	}

	order := &models.Order{
		UserID: requester.ID,
		Buyer: models.Buyer{
			Name:    requester.Name,
			Email:   requester.Email,
			Address: input.Address,
		},
		Items:          items,
		TotalPrice:     input.TotalPrice,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		PaymentStatus:  models.PaymentPending,
		GatewayOrderID: gatewayOrder.ID,
		CreatedAt:      now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to persist order",
			zap.String("gateway_order_id", gatewayOrder.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("gateway_order_id", order.GatewayOrderID),
		zap.Int64("amount", order.Amount))
	s.publish(rabbitmq.EventOrderCreated, order, "")

	return &CreatedOrder{
		OrderID:        order.ID,
		GatewayOrderID: order.GatewayOrderID,
		Amount:         order.Amount,
		Currency:       order.Currency,
	}, nil
}

// ConfirmPayment verifies the browser's payment proof against the gateway
// order id stored on the order and marks the order paid. Confirming an
// already paid order succeeds without changing it.
func (s *OrderService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error) {
	if input.OrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if input.GatewayOrderID != "" && input.GatewayOrderID != order.GatewayOrderID {
		s.logger.Warn("Gateway order id mismatch on payment confirmation",
			zap.String("order_id", order.ID),
			zap.String("claimed", input.GatewayOrderID))
		return nil, fmt.Errorf("%w: gateway order id does not belong to order %s", ErrInvalidSignature, order.ID)
	}
	if err := payment.VerifyPaymentSignature(order.GatewayOrderID, input.GatewayPaymentID, input.Signature, s.keySecret); err != nil {
		s.logger.Warn("Payment signature rejected", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	return s.settle(ctx, order, input.GatewayPaymentID, SourceClient)
}

// SettleByGatewayOrder marks the order correlated with gatewayOrderID as paid.
// The caller must already hold verified proof of payment.
func (s *OrderService) SettleByGatewayOrder(ctx context.Context, gatewayOrderID, gatewayPaymentID, source string) (*models.Order, error) {
	order, err := s.orderRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	return s.settle(ctx, order, gatewayPaymentID, source)
}

func (s *OrderService) settle(ctx context.Context, order *models.Order, paymentID, source string) (*models.Order, error) {
	if order.IsPaid() {
		s.logAlreadyPaid(order, paymentID, source)
		return order, nil
	}

	applied, err := s.orderRepo.MarkPaid(ctx, order.ID, models.PaymentProof{
		PaymentID: paymentID,
		PaidAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, translateOrderError(err)
	}

	current, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The other confirmation path got there first.
		s.logAlreadyPaid(current, paymentID, source)
		return current, nil
	}

	s.logger.Info("Order paid",
		zap.String("order_id", current.ID),
		zap.String("payment_id", current.PaymentID),
		zap.String("source", source))
	s.publish(rabbitmq.EventOrderPaid, current, source)
	return current, nil
}

func (s *OrderService) logAlreadyPaid(order *models.Order, paymentID, source string) {
	fields := []zap.Field{
		zap.String("order_id", order.ID),
		zap.String("source", source),
	}
	if order.PaymentID != paymentID {
		s.logger.Warn("Order already paid with a different payment",
			append(fields, zap.String("stored_payment_id", order.PaymentID), zap.String("payment_id", paymentID))...)
		return
	}
	s.logger.Debug("Order already paid", fields...)
}

// GetOrder returns the order to its buyer or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, requester models.Requester, orderID string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(requester.Email) && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: order %s belongs to another buyer", ErrNotAuthorized, orderID)
	}
	return order, nil
}

// ListOrdersForUser returns the buyer's orders, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, email string) ([]models.Order, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	orders, err := s.orderRepo.ListByBuyerEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first. Admins only.
func (s *OrderService) ListAllOrders(ctx context.Context, requester models.Requester) ([]models.Order, error) {
	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrNotAuthorized)
	}
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	return order, nil
}

func (s *OrderService) publish(eventType string, order *models.Order, source string) {
	if s.publisher == nil {
		return
	}
	event := orderEvent{
		OrderID:        order.ID,
		GatewayOrderID: order.GatewayOrderID,
		BuyerEmail:     order.Buyer.Email,
		Amount:         order.Amount,
		Currency:       order.Currency,
		PaymentStatus:  order.PaymentStatus,
		PaymentID:      order.PaymentID,
		Source:         source,
	}
	if err := s.publisher.Publish(eventType, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

func translateOrderError(err error) error {
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

var hundred = decimal.NewFromInt(100)

// toMinorUnits converts a decimal amount to minor units, rounding half away
// from zero.
func toMinorUnits(total float64) (int64, error) {
	if total <= 0 {
		return 0, fmt.Errorf("%w: total price must be positive", ErrValidation)
	}
	return decimal.NewFromFloat(total).Mul(hundred).Round(0).IntPart(), nil
}

func itemsMinorUnits(items []models.OrderItem) int64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum.Mul(hundred).Round(0).IntPart()
}
