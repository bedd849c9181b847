package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultClaimTTL bounds how long an unfinished claim blocks redeliveries.
const DefaultClaimTTL = 2 * time.Minute

// EventLedger remembers webhook event ids that were already handled so a
// redelivery can be acknowledged without touching the order store.
//
// A claim is short-lived until Commit extends it to the full ttl, so a
// process that dies mid-event does not swallow the gateway's retries.
type EventLedger struct {
	client   *redis.Client
	ttl      time.Duration
	claimTTL time.Duration
}

// NewEventLedger creates a ledger whose committed marks expire after ttl.
func NewEventLedger(client *redis.Client, ttl time.Duration) *EventLedger {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	claimTTL := DefaultClaimTTL
	if claimTTL > ttl {
		claimTTL = ttl
	}
	return &EventLedger{
		client:   client,
		ttl:      ttl,
		claimTTL: claimTTL,
	}
}

// Claim marks eventID as in flight. It returns false when the id is already
// claimed or committed by an earlier delivery.
func (l *EventLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKey(eventID), time.Now().Unix(), l.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// Commit keeps a claimed eventID for the full ttl once it has been handled.
func (l *EventLedger) Commit(ctx context.Context, eventID string) error {
	if err := l.client.Expire(ctx, ledgerKey(eventID), l.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire failed: %w", err)
	}
	return nil
}

// Release forgets eventID so the next delivery is processed again.
func (l *EventLedger) Release(ctx context.Context, eventID string) error {
	if err := l.client.Del(ctx, ledgerKey(eventID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func ledgerKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", eventID)
}
