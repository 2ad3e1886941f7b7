package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otphub/internal/otp/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
	"github.com/shandysiswandi/otphub/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOTPRequest(ctx context.Context, msg usecase.OTPRequestEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOTPRequest")
	defer span.End()

	return m.publish(ctx, span, event.OTPRequestDestination, []byte(msg.Identifier), event.OTPRequestMessage{
		RequestID:  msg.RequestID,
		Identifier: msg.Identifier,
		Purpose:    msg.Purpose,
		UserName:   msg.UserName,
		Metadata:   msg.Metadata,
	})
}

// PublishNotification hands a rendered-later OTP message to the notification module.
// The body carries the plaintext code, so it is never logged here.
func (m *Messaging) PublishNotification(ctx context.Context, msg usecase.NotificationEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishNotification")
	defer span.End()

	return m.publish(ctx, span, event.NotificationDestination, []byte(msg.Recipient), event.NotificationMessage{
		RequestID:    msg.RequestID,
		Recipient:    msg.Recipient,
		TemplateName: msg.TemplateName,
		Data:         msg.Data,
	})
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, destination string, key []byte, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	out := messaging.OutgoingMessage{Body: body, Key: key}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		out.Headers = []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}}
	}
	if _, err := m.client.Publish(ctx, destination, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
