package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
)

// MarkSent moves a pending notification to sent.
func (s *DB) MarkSent(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkSent")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE notifications
		SET status = $2, sent_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`

	tag, err := s.conn.Exec(ctx, query, id, entity.StatusSent.String(), at, entity.StatusPending.String())
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// MarkFailed records a failed delivery attempt and bumps retry_count.
func (s *DB) MarkFailed(ctx context.Context, id int64, reason string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkFailed")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE notifications
		SET status = $2, error_message = $3, failed_at = $4, retry_count = retry_count + 1, updated_at = $4
		WHERE id = $1 AND status = $5`

	tag, err := s.conn.Exec(ctx, query, id, entity.StatusFailed.String(), reason, at, entity.StatusPending.String())
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
