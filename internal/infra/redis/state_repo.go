package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo manages per-subscriber conversation state in Redis.
type StateRepo struct {
	client *redClient
	ttl    time.Duration
}

// NewStateRepo uses the given TTL so abandoned flows expire on their own.
func NewStateRepo(client *redClient, ttl time.Duration) repository.StateRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateRepo{client: client, ttl: ttl}
}

func (s *StateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("conv_state:%d", tgID)
}

func (s *StateRepo) Set(ctx context.Context, tgID int64, state model.ConversationState) error {
	return s.client.Set(ctx, s.stateKey(tgID), string(state), s.ttl)
}

// Get returns StateIdle for subscribers with no stored state.
func (s *StateRepo) Get(ctx context.Context, tgID int64) (model.ConversationState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.StateIdle, nil
		}
		return model.StateIdle, err
	}
	return model.ConversationState(data), nil
}

func (s *StateRepo) Clear(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
