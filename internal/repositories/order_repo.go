package repositories

import (
	"context"
	"errors"

	"storefront/internal/models"
)

// ErrOrderNotFound is returned when no order matches the lookup.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access.
// Orders are never deleted; they are kept as receipts.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListByBuyerEmail(ctx context.Context, email string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// MarkPaid writes the Paid fields only if the order is not paid yet.
	// applied is false when the order was already paid.
	MarkPaid(ctx context.Context, id string, proof models.PaymentProof) (applied bool, err error)
}
