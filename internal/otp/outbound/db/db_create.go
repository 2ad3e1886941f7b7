package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otphub/internal/otp/entity"
)

const (
	createRetryBase = 20 * time.Millisecond
	createRetryCap  = 500 * time.Millisecond
	createRetryMax  = 3
)

// CreateActive revokes every active record of the pair and inserts rec in one
// transaction. It returns how many records were revoked.
func (s *DB) CreateActive(ctx context.Context, rec entity.Record) (revoked int64, err error) {
	ctx, span := s.startSpan(ctx, "CreateActive")
	defer func() { s.endSpan(span, err) }()

	b := retry.NewFibonacci(createRetryBase)
	b = retry.WithMaxRetries(createRetryMax, b)
	b = retry.WithCappedDuration(createRetryCap, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		n, txErr := s.createActiveTx(ctx, rec)
		if txErr != nil {
			if isRetryable(txErr) {
				slog.WarnContext(ctx, "retrying otp create after concurrent write", "otp_id", rec.ID, "error", txErr)
				return retry.RetryableError(txErr)
			}
			return txErr
		}

		revoked = n
		return nil
	})

	return revoked, s.mapError(err)
}

func (s *DB) createActiveTx(ctx context.Context, rec entity.Record) (int64, error) {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE otps SET status = 'revoked', updated_at = $3
		WHERE identifier = $1 AND purpose = $2 AND status = 'active'`,
		rec.Identifier, rec.Purpose, rec.CreatedAt,
	)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO otps (id, identifier, purpose, code_hash, status, attempts, expires_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'active', 0, $5, $6, $7, $7)`,
		rec.ID, rec.Identifier, rec.Purpose, rec.CodeHash, rec.ExpiresAt, rec.Metadata, rec.CreatedAt,
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
