package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otphub/internal/notification/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID && len(headers[i].Value) > 0 {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// Notification handles email-notifications. The body carries the code, so it
// is never logged.
func (h *MQHandler) Notification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "Notification")
	defer span.End()

	var payload event.NotificationMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: notification", "request_id", payload.RequestID, "template", payload.TemplateName)

	if err := h.uc.ConsumeNotification(ctx, usecase.ConsumeNotificationInput{
		RequestID:    payload.RequestID,
		Recipient:    payload.Recipient,
		Channel:      payload.Channel,
		TemplateName: payload.TemplateName,
		Data:         payload.Data,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume notification", "request_id", payload.RequestID, "error", err)
		return err
	}

	return nil
}
