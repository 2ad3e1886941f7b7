package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/valueobject"
)

type ConsumeNotificationInput struct {
	RequestID    string `validate:"required"`
	Recipient    string `validate:"required,max=255"`
	Channel      string
	TemplateName string `validate:"required,max=100"`
	Data         map[string]any
}

type emailRecipient struct {
	Recipient string `validate:"email"`
}

type smsRecipient struct {
	Recipient string `validate:"e164"`
}

// ConsumeNotification renders a stored template and delivers it once per
// request and channel. Only storage failures are returned for redelivery;
// a failed provider call is recorded on the notification row instead.
func (s *Usecase) ConsumeNotification(ctx context.Context, in ConsumeNotificationInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeNotification")
	defer span.End()

	in.Recipient = strings.TrimSpace(in.Recipient)

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "dropping invalid notification", "request_id", in.RequestID, "error", err)
		return nil
	}

	ch := s.resolveChannel(in.Channel, in.Recipient)
	sender, ok := s.senders[ch]
	if !ok {
		slog.WarnContext(ctx, "dropping notification", "request_id", in.RequestID, "channel", ch.String(), "error", entity.ErrUnsupportedChannel)
		return nil
	}

	err := s.idemp.Exec(ctx, "notification:"+in.RequestID+":"+ch.String(), func(ctx context.Context) error {
		return s.deliver(ctx, ch, sender, in)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "skipping duplicate notification", "request_id", in.RequestID, "error", err)
		return nil
	case errors.Is(err, entity.ErrTemplateNotFound), errors.Is(err, entity.ErrRenderTemplate):
		slog.ErrorContext(ctx, "dropping notification", "request_id", in.RequestID, "template", in.TemplateName, "error", err)
		return nil
	default:
		slog.ErrorContext(ctx, "failed to process notification, will retry", "request_id", in.RequestID, "error", err)
		return err
	}
}

// resolveChannel honours an explicit channel, otherwise picks one from the
// shape of the recipient.
func (s *Usecase) resolveChannel(raw, recipient string) entity.Channel {
	if ch := entity.ChannelFromString(raw); ch != entity.ChannelUnknown {
		return ch
	}

	if s.validator.Validate(emailRecipient{Recipient: recipient}) == nil {
		return entity.ChannelEmail
	}
	if s.validator.Validate(smsRecipient{Recipient: recipient}) == nil {
		return entity.ChannelSMS
	}

	return entity.ChannelUnknown
}

func (s *Usecase) deliver(ctx context.Context, ch entity.Channel, sender Sender, in ConsumeNotificationInput) error {
	tpl, err := s.repoDB.GetActiveTemplate(ctx, in.TemplateName, ch)
	if errors.Is(err, goerror.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", entity.ErrTemplateNotFound, in.TemplateName, ch.String())
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active template", "template", in.TemplateName, "channel", ch.String(), "error", err)
		return err
	}

	data := tpl.DefaultData.Merge(in.Data)

	out, err := renderTemplate(tpl, data)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrRenderTemplate, err)
	}

	id := s.uid.Generate()
	if err := s.repoDB.CreateNotification(ctx, entity.CreateNotification{
		ID:           id,
		Channel:      ch,
		Recipient:    in.Recipient,
		TemplateID:   tpl.ID,
		TemplateData: redactSecrets(data),
		Subject:      out.Subject,
		Provider:     sender.Provider(),
		Metadata:     valueobject.JSONMap{"request_id": in.RequestID},
		CreatedAt:    s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "request_id", in.RequestID, "error", err)
		return err
	}

	sendErr := sender.Send(ctx, entity.Delivery{
		Recipient: in.Recipient,
		Subject:   out.Subject,
		Body:      out.Body,
		HTMLBody:  out.HTMLBody,
	})
	if sendErr != nil {
		slog.ErrorContext(ctx, "failed to send notification", "notification_id", id, "channel", ch.String(), "provider", sender.Provider(), "error", sendErr)
		if err := s.repoDB.MarkFailed(ctx, id, sendErr.Error(), s.clock.Now()); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark notification failed", "notification_id", id, "error", err)
		}
		return nil
	}

	if err := s.repoDB.MarkSent(ctx, id, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark notification sent", "notification_id", id, "error", err)
	}

	slog.InfoContext(ctx, "notification sent", "notification_id", id, "channel", ch.String(), "template", in.TemplateName)
	return nil
}
