package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/adapter"
	"telegram-vip-subscription/internal/domain/ports/repository"
	"telegram-vip-subscription/internal/infra/metrics"
)

// RedemptionResult describes a successful code redemption.
type RedemptionResult struct {
	ExpiresAt time.Time
	Days      int
	Extended  bool // true when stacked on top of a still-valid entitlement
}

// SubscriptionUseCase implements the redemption engine and the expiry sweep.
//
// Redemption policy: extend-on-top. When the subscriber still holds a valid
// entitlement, the new expiry is the current expiry plus the code's duration;
// otherwise it is now plus the duration. Remaining paid time is never
// discarded.
type SubscriptionUseCase struct {
	subs  repository.SubscriptionRepository
	codes repository.CodeRepository
	tm    repository.TransactionManager
	bot   adapter.BotAdapter
	auth  Authorizer
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	codes repository.CodeRepository,
	tm repository.TransactionManager,
	bot adapter.BotAdapter,
	auth Authorizer,
	logger *zerolog.Logger,
) *SubscriptionUseCase {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &SubscriptionUseCase{subs: subs, codes: codes, tm: tm, bot: bot, auth: auth, log: &l}
}

// Redeem exchanges an unconsumed code for entitlement time.
//
// The entitlement upsert and the conditional consume run in one transaction.
// The conditional write on the code row is the sole serialization point:
// if it reports zero rows affected the whole transaction rolls back and the
// attempt is rejected as already-used, even though the earlier read saw the
// code as unconsumed.
func (uc *SubscriptionUseCase) Redeem(ctx context.Context, subscriberID int64, rawToken string) (*RedemptionResult, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		metrics.IncRedemptionRejected("invalid_code")
		return nil, domain.ErrCodeNotFound
	}

	var res *RedemptionResult
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := uc.codes.FindByCode(ctx, tx, token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}
		if code.Consumed() {
			return domain.ErrCodeAlreadyUsed
		}

		now := time.Now()
		base := now
		extended := false
		cur, err := uc.subs.Find(ctx, tx, subscriberID)
		switch {
		case err == nil && cur.Active(now):
			base = cur.ExpiresAt
			extended = true
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return err
		}

		expiresAt := base.Add(time.Duration(code.Days) * 24 * time.Hour)
		if err := uc.subs.Upsert(ctx, tx, &model.Subscription{SubscriberID: subscriberID, ExpiresAt: expiresAt}); err != nil {
			return err
		}

		consumed, err := uc.codes.MarkConsumed(ctx, tx, token, subscriberID, now)
		if err != nil {
			return err
		}
		if !consumed {
			// Lost the race after the initial read; the upsert above rolls back.
			return domain.ErrCodeAlreadyUsed
		}

		res = &RedemptionResult{ExpiresAt: expiresAt, Days: code.Days, Extended: extended}
		return nil
	})
	if err != nil {
		metrics.IncRedemptionRejected(rejectionReason(err))
		return nil, err
	}

	metrics.IncCodesRedeemed()
	uc.log.Info().
		Int64("tg_id", subscriberID).
		Int("days", res.Days).
		Bool("extended", res.Extended).
		Time("expires_at", res.ExpiresAt).
		Msg("code redeemed")
	return res, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		return "invalid_code"
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return "already_used"
	default:
		return "store_error"
	}
}

// Status returns the subscriber's current entitlement. A row whose expiry
// has already passed is lazily deleted and reported as no subscription.
func (uc *SubscriptionUseCase) Status(ctx context.Context, subscriberID int64) (*model.Subscription, error) {
	sub, err := uc.subs.Find(ctx, repository.NoTX, subscriberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoSubscription
		}
		return nil, err
	}
	if !sub.Active(time.Now()) {
		if err := uc.subs.Delete(ctx, subscriberID); err != nil {
			uc.log.Warn().Err(err).Int64("tg_id", subscriberID).Msg("lazy cleanup of expired subscription failed")
		}
		return nil, domain.ErrNoSubscription
	}
	return sub, nil
}

// DeleteSubscription is the admin override that drops an entitlement.
// Deleting a non-existent entitlement is a no-op (idempotent).
func (uc *SubscriptionUseCase) DeleteSubscription(ctx context.Context, adminID, subscriberID int64) error {
	if !uc.auth.IsPrivileged(adminID) {
		return domain.ErrUnauthorized
	}
	return uc.subs.Delete(ctx, subscriberID)
}

// SweepExpired removes every entitlement whose expiry has passed. Channel
// revoke and the notification are best-effort: their failure is logged and
// never blocks the deletion, nor the processing of other subscribers.
// Returns the number of entitlements removed.
func (uc *SubscriptionUseCase) SweepExpired(ctx context.Context) (int, error) {
	expired, err := uc.subs.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, sub := range expired {
		if err := uc.bot.RevokeAccess(ctx, sub.SubscriberID); err != nil {
			uc.log.Warn().Err(err).Int64("tg_id", sub.SubscriberID).Msg("channel revoke failed")
		}
		if err := uc.bot.SendMessage(ctx, sub.SubscriberID, "Your VIP subscription has expired. Redeem a new code to regain access."); err != nil {
			uc.log.Warn().Err(err).Int64("tg_id", sub.SubscriberID).Msg("expiry notification failed")
		}
		if err := uc.subs.Delete(ctx, sub.SubscriberID); err != nil {
			uc.log.Error().Err(err).Int64("tg_id", sub.SubscriberID).Msg("failed to delete expired subscription")
			continue
		}
		swept++
	}

	if n, err := uc.subs.CountActive(ctx); err == nil {
		metrics.SetSubscriptionsActive(n)
	}
	return swept, nil
}
