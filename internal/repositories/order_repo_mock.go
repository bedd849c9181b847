package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order with ID %s already exists", order.ID)
	}
	for _, existing := range r.orders {
		if existing.GatewayOrderID == order.GatewayOrderID {
			return fmt.Errorf("order for gateway order %s already exists", order.GatewayOrderID)
		}
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrOrderNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// GetByGatewayOrderID returns the order correlated with a gateway order.
func (r *MockOrderRepository) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.GatewayOrderID == gatewayOrderID {
			order = cloneOrder(order)
			return &order, nil
		}
	}
	return nil, fmt.Errorf("order for gateway order %s: %w", gatewayOrderID, ErrOrderNotFound)
}

// ListByBuyerEmail returns the buyer's orders, newest first.
func (r *MockOrderRepository) ListByBuyerEmail(_ context.Context, email string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.Buyer.Email == email {
			orderList = append(orderList, cloneOrder(order))
		}
	}
	sortNewestFirst(orderList)
	return orderList, nil
}

// ListAll returns all orders, newest first.
func (r *MockOrderRepository) ListAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, cloneOrder(order))
	}
	sortNewestFirst(orderList)
	return orderList, nil
}

// MarkPaid settles the order under the write lock so concurrent confirmations
// observe a single transition.
func (r *MockOrderRepository) MarkPaid(_ context.Context, id string, proof models.PaymentProof) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s: %w", id, ErrOrderNotFound)
	}
	if !order.Settle(proof) {
		return false, nil
	}
	r.orders[id] = order
	return true, nil
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// cloneOrder detaches the item slice and paid timestamp from the stored copy.
func cloneOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	if order.PaidAt != nil {
		paidAt := *order.PaidAt
		order.PaidAt = &paidAt
	}
	return order
}
