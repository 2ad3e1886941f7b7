package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
)

func (s *DB) RevokeAllActive(ctx context.Context, identifier, purpose string, at time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllActive")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otps SET status = 'revoked', updated_at = $3
		WHERE identifier = $1 AND purpose = $2 AND status = 'active'`,
		identifier, purpose, at,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// IncrementAttempts adds one attempt to an active record below maxAttempts and
// returns the new count. goerror.ErrConflict means the guard rejected the update.
func (s *DB) IncrementAttempts(ctx context.Context, id string, maxAttempts int) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	var attempts int
	err = s.conn.QueryRow(ctx, `
		UPDATE otps SET attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND attempts < $2
		RETURNING attempts`,
		id, maxAttempts,
	).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, goerror.ErrConflict
	}
	if err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

// MarkVerified consumes one attempt and closes the record as verified in a
// single statement, so a success can neither exceed maxAttempts nor happen twice.
// goerror.ErrConflict means the record is no longer verifiable.
func (s *DB) MarkVerified(ctx context.Context, id string, maxAttempts int, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otps
		SET attempts = attempts + 1, status = 'verified', verified_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'active' AND attempts < $2 AND expires_at > $3`,
		id, maxAttempts, at,
	)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	return nil
}

// Transition moves a record from one status to another. It only applies while
// the record still holds from, so terminal records never change again.
func (s *DB) Transition(ctx context.Context, id string, from, to entity.Status, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "Transition")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otps
		SET status = $3::text,
			verified_at = CASE WHEN $3::text = 'verified' THEN $4 ELSE verified_at END,
			updated_at = $4
		WHERE id = $1 AND status = $2::text`,
		id, from.String(), to.String(), at,
	)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	return nil
}

// ExpireStale marks every active record whose expires_at is before now as expired.
func (s *DB) ExpireStale(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ExpireStale")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otps SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
