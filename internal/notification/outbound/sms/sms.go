package sms

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel/codes"
)

const providerTwilio = "twilio"

// messageCreator is the part of the Twilio REST API used to send SMS.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type Config struct {
	AccountSID string
	AuthToken  string
	From       string
}

type Twilio struct {
	api  messageCreator
	from string
	ins  instrument.Instrumentation
}

func New(cfg Config, ins instrument.Instrumentation) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Twilio{api: client.Api, from: cfg.From, ins: ins}
}

func (t *Twilio) Provider() string {
	return providerTwilio
}

func (t *Twilio) Send(ctx context.Context, d entity.Delivery) error {
	_, span := t.ins.Tracer("notification.outbound.sms").Start(ctx, "Send")
	defer span.End()

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(d.Recipient)
	params.SetFrom(t.from)
	params.SetBody(d.Body)

	if _, err := t.api.CreateMessage(params); err != nil {
		err = fmt.Errorf("twilio: create message: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
