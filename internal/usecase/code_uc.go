package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/repository"
	"telegram-vip-subscription/internal/infra/metrics"
)

// maxCreateAttempts bounds token regeneration on unique-constraint collisions.
const maxCreateAttempts = 3

// listLimit caps the admin delete menu, matching the bot's keyboard size.
const listLimit = 50

// CodeUseCase implements administrative code operations. Every entry point
// is gated on the injected Authorizer.
type CodeUseCase struct {
	codes repository.CodeRepository
	auth  Authorizer
	log   *zerolog.Logger
}

func NewCodeUseCase(codes repository.CodeRepository, auth Authorizer, logger *zerolog.Logger) *CodeUseCase {
	l := logger.With().Str("component", "CodeUC").Logger()
	return &CodeUseCase{codes: codes, auth: auth, log: &l}
}

// Create mints a fresh unconsumed code worth the given number of days.
// Duration must be within [MinCodeDays, MaxCodeDays].
func (uc *CodeUseCase) Create(ctx context.Context, adminID int64, days int) (*model.Code, error) {
	if !uc.auth.IsPrivileged(adminID) {
		return nil, domain.ErrUnauthorized
	}
	if days < model.MinCodeDays || days > model.MaxCodeDays {
		return nil, domain.ErrInvalidDuration
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		token, err := generateCodeToken()
		if err != nil {
			return nil, err
		}
		code := &model.Code{
			Code:      token,
			Days:      days,
			CreatedAt: time.Now(),
		}
		err = uc.codes.Create(ctx, repository.NoTX, code)
		if errors.Is(err, domain.ErrAlreadyExists) {
			uc.log.Warn().Int("attempt", attempt+1).Msg("token collision, regenerating")
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.IncCodesCreated()
		uc.log.Info().Int("days", days).Msg("code created")
		return code, nil
	}
	return nil, domain.ErrOperationFailed
}

// ListUnconsumed returns the unconsumed codes for the admin delete menu.
func (uc *CodeUseCase) ListUnconsumed(ctx context.Context, adminID int64) ([]*model.Code, error) {
	if !uc.auth.IsPrivileged(adminID) {
		return nil, domain.ErrUnauthorized
	}
	return uc.codes.ListUnconsumed(ctx, listLimit)
}

// Delete removes an unconsumed code. Deleting an absent or consumed code
// is a no-op, never an error.
func (uc *CodeUseCase) Delete(ctx context.Context, adminID int64, token string) error {
	if !uc.auth.IsPrivileged(adminID) {
		return domain.ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidArgument
	}
	return uc.codes.Delete(ctx, token)
}
