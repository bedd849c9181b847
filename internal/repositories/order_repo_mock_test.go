package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewMockOrderRepository()
	ctx := context.Background()

	order := newPendingOrder("ragi@example.com", "order_G1", time.Time{})
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEmpty(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, *order, *got)

	// Reads are copies.
	got.Items[0].Quantity = 99
	again, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)

	assert.Error(t, repo.Create(ctx, newPendingOrder("mala@example.com", "order_G1", time.Time{})))

	_, err = repo.GetByGatewayOrderID(ctx, "order_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMockOrderRepository_MarkPaidOnce(t *testing.T) {
	repo := NewMockOrderRepository()
	ctx := context.Background()

	order := newPendingOrder("ragi@example.com", "order_G1", time.Time{})
	require.NoError(t, repo.Create(ctx, order))

	var mu sync.Mutex
	applied := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkPaid(ctx, order.ID, models.PaymentProof{PaymentID: "pay_P1", PaidAt: time.Now()})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid())

	_, err = repo.MarkPaid(ctx, "missing", models.PaymentProof{PaymentID: "pay_P1", PaidAt: time.Now()})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMockOrderRepository_ListsNewestFirst(t *testing.T) {
	repo := NewMockOrderRepository()
	ctx := context.Background()

	base := time.Now()
	older := newPendingOrder("ragi@example.com", "order_G1", base.Add(-time.Hour))
	newer := newPendingOrder("ragi@example.com", "order_G2", base)
	other := newPendingOrder("mala@example.com", "order_G3", base.Add(-time.Minute))
	for _, o := range []*models.Order{older, newer, other} {
		require.NoError(t, repo.Create(ctx, o))
	}

	mine, err := repo.ListByBuyerEmail(ctx, "ragi@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, other.ID, older.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
}
