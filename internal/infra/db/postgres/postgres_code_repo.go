package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CodeRepository = (*codeRepo)(nil)

type codeRepo struct {
	pool *pgxpool.Pool
}

func NewCodeRepo(pool *pgxpool.Pool) repository.CodeRepository {
	return &codeRepo{pool: pool}
}

func (r *codeRepo) Create(ctx context.Context, tx repository.Tx, code *model.Code) error {
	const q = `
INSERT INTO codes (code, days, created_at)
VALUES ($1, $2, $3);
`
	_, err := execSQL(ctx, r.pool, tx, q, code.Code, code.Days, code.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *codeRepo) FindByCode(ctx context.Context, tx repository.Tx, token string) (*model.Code, error) {
	const q = `
SELECT code, days, created_at, consumed_by, consumed_at
  FROM codes
 WHERE code = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}

	var c model.Code
	if err := row.Scan(&c.Code, &c.Days, &c.CreatedAt, &c.ConsumedBy, &c.ConsumedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

// MarkConsumed is the sole guard against double redemption: the UPDATE applies
// only while consumed_by is still NULL, and the caller must treat zero rows
// affected as losing the race.
func (r *codeRepo) MarkConsumed(ctx context.Context, tx repository.Tx, token string, subscriberID int64, at time.Time) (bool, error) {
	const q = `
UPDATE codes
   SET consumed_by = $2, consumed_at = $3
 WHERE code = $1 AND consumed_by IS NULL;
`
	tag, err := execSQL(ctx, r.pool, tx, q, token, subscriberID, at)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() > 0, nil
}

func (r *codeRepo) ListUnconsumed(ctx context.Context, limit int) ([]*model.Code, error) {
	const q = `
SELECT code, days, created_at, consumed_by, consumed_at
  FROM codes
 WHERE consumed_by IS NULL
 ORDER BY created_at DESC
 LIMIT $1;
`
	rows, err := queryRows(ctx, r.pool, nil, q, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Code
	for rows.Next() {
		var c model.Code
		if err := rows.Scan(&c.Code, &c.Days, &c.CreatedAt, &c.ConsumedBy, &c.ConsumedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// Delete only removes unconsumed codes; consumed codes stay as an audit trail.
func (r *codeRepo) Delete(ctx context.Context, token string) error {
	const q = `DELETE FROM codes WHERE code = $1 AND consumed_by IS NULL;`
	if _, err := execSQL(ctx, r.pool, nil, q, token); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
