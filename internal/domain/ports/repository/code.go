package repository

import (
	"context"
	"time"

	"telegram-vip-subscription/internal/domain/model"
)

// CodeRepository is the port for managing redemption codes.
type CodeRepository interface {
	// Create persists a fresh unconsumed code. A duplicate token reports
	// domain.ErrAlreadyExists so the caller can regenerate.
	Create(ctx context.Context, tx Tx, code *model.Code) error
	// FindByCode is a point read by token; domain.ErrNotFound if absent.
	FindByCode(ctx context.Context, tx Tx, token string) (*model.Code, error)
	// MarkConsumed conditionally records consumption. It applies only while
	// the code is still unconsumed and reports whether the write landed.
	// Zero rows affected is not an error: it means someone else won.
	MarkConsumed(ctx context.Context, tx Tx, token string, subscriberID int64, at time.Time) (bool, error)
	// ListUnconsumed returns unconsumed codes, newest first, capped at limit.
	ListUnconsumed(ctx context.Context, limit int) ([]*model.Code, error)
	// Delete removes an unconsumed code. Deleting an absent or already
	// consumed code is a no-op.
	Delete(ctx context.Context, token string) error
}
