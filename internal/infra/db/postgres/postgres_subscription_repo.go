package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) repository.SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Find(ctx context.Context, tx repository.Tx, subscriberID int64) (*model.Subscription, error) {
	const q = `
SELECT subscriber_id, expires_at
  FROM subscriptions
 WHERE subscriber_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, subscriberID)
	if err != nil {
		return nil, err
	}

	var s model.Subscription
	if err := row.Scan(&s.SubscriberID, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (subscriber_id, expires_at)
VALUES ($1, $2)
ON CONFLICT (subscriber_id) DO UPDATE
  SET expires_at = EXCLUDED.expires_at;
`
	if _, err := execSQL(ctx, r.pool, tx, q, sub.SubscriberID, sub.ExpiresAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, subscriberID int64) error {
	const q = `DELETE FROM subscriptions WHERE subscriber_id = $1;`
	if _, err := execSQL(ctx, r.pool, nil, q, subscriberID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.Subscription, error) {
	const q = `
SELECT subscriber_id, expires_at
  FROM subscriptions
 WHERE expires_at <= $1
 ORDER BY expires_at ASC;
`
	rows, err := queryRows(ctx, r.pool, nil, q, now)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.SubscriberID, &s.ExpiresAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) CountActive(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM subscriptions WHERE expires_at > NOW();`
	row, err := pickRow(ctx, r.pool, nil, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
