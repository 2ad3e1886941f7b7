package db

import (
	"context"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
)

func (s *DB) GetActiveTemplate(ctx context.Context, name string, ch entity.Channel) (_ *entity.Template, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveTemplate")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, name, type, subject, body, html_body, default_data
		FROM notification_templates
		WHERE name = $1 AND type = $2 AND is_active
		LIMIT 1`

	var (
		tpl     entity.Template
		channel string
	)
	if err = s.conn.QueryRow(ctx, query, name, string(ch)).Scan(
		&tpl.ID,
		&tpl.Name,
		&channel,
		&tpl.Subject,
		&tpl.Body,
		&tpl.HTMLBody,
		&tpl.DefaultData,
	); err != nil {
		return nil, s.mapError(err)
	}

	tpl.Channel = entity.ChannelFromString(channel)
	return &tpl, nil
}
