package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otphub/internal/otp/usecase"
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

func (h *MQHandler) OTPRequest(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("otp.inbound.mq").Start(ctx, "OTPRequest")
	defer span.End()

	body := msg.Body()

	var payload event.OTPRequestMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp request", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: otp request", "request_id", payload.RequestID, "purpose", payload.Purpose)

	if err := h.uc.ConsumeOTPRequest(ctx, usecase.ConsumeOTPRequestInput{
		RequestID:  payload.RequestID,
		Identifier: payload.Identifier,
		Purpose:    payload.Purpose,
		UserName:   payload.UserName,
		Metadata:   payload.Metadata,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp request", "request_id", payload.RequestID, "error", err)
		return err
	}

	return nil
}
