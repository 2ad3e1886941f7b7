package email

import (
	"context"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const providerSMTP = "smtp"

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) Provider() string {
	return providerSMTP
}

func (m *Mail) Send(ctx context.Context, d entity.Delivery) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{d.Recipient},
		Subject:  d.Subject,
		TextBody: d.Body,
		HTMLBody: d.HTMLBody,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
