package repository

import (
	"context"

	"telegram-vip-subscription/internal/domain/model"
)

// StateRepository tracks the per-subscriber conversation state.
// An absent entry reads as model.StateIdle.
type StateRepository interface {
	Set(ctx context.Context, tgID int64, state model.ConversationState) error
	Get(ctx context.Context, tgID int64) (model.ConversationState, error)
	Clear(ctx context.Context, tgID int64) error
}
