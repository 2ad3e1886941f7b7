package db

import (
	"context"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
)

func (s *DB) CreateNotification(ctx context.Context, n entity.CreateNotification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO notifications (id, type, recipient, template_id, template_data, subject, status, provider, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	_, err = s.conn.Exec(ctx, query,
		n.ID,
		string(n.Channel),
		n.Recipient,
		n.TemplateID,
		n.TemplateData,
		n.Subject,
		entity.StatusPending.String(),
		n.Provider,
		n.Metadata,
		n.CreatedAt,
	)
	return s.mapError(err)
}
