package application

import (
	"context"
	"time"

	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface that the facade needs. Using interfaces
// enables tests to pass in light-weight mocks.

type CodeService interface {
	Create(ctx context.Context, adminID int64, days int) (*model.Code, error)
	ListUnconsumed(ctx context.Context, adminID int64) ([]*model.Code, error)
	Delete(ctx context.Context, adminID int64, token string) error
}

type SubscriptionService interface {
	Redeem(ctx context.Context, subscriberID int64, rawToken string) (*usecase.RedemptionResult, error)
	Status(ctx context.Context, subscriberID int64) (*model.Subscription, error)
	DeleteSubscription(ctx context.Context, adminID, subscriberID int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
