package repository

import (
	"context"
	"time"

	"telegram-vip-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for subscriber entitlements.
type SubscriptionRepository interface {
	// Find returns the subscriber's entitlement; domain.ErrNotFound if absent.
	Find(ctx context.Context, tx Tx, subscriberID int64) (*model.Subscription, error)
	// Upsert inserts or replaces the single row per subscriber.
	// Last writer wins on expires_at.
	Upsert(ctx context.Context, tx Tx, sub *model.Subscription) error
	// Delete removes the entitlement. Deleting an absent row is a no-op.
	Delete(ctx context.Context, subscriberID int64) error
	// ListExpired returns all entitlements whose expiry is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]*model.Subscription, error)
	// CountActive returns the number of currently valid entitlements.
	CountActive(ctx context.Context) (int, error)
}
