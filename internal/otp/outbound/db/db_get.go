package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
)

func (s *DB) GetByID(ctx context.Context, id string) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "GetByID")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanRecord(s.conn.QueryRow(ctx, `SELECT `+recordColumns+` FROM otps WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return rec, nil
}

// FindLatestActive returns the newest active record of the pair that has not expired at now.
func (s *DB) FindLatestActive(ctx context.Context, identifier, purpose string, now time.Time) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "FindLatestActive")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanRecord(s.conn.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM otps
		WHERE identifier = $1 AND purpose = $2 AND status = 'active' AND expires_at > $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		identifier, purpose, now,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return rec, nil
}
