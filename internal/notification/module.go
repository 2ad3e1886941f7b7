package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/notification/inbound"
	"github.com/shandysiswandi/otphub/internal/notification/outbound/db"
	"github.com/shandysiswandi/otphub/internal/notification/outbound/email"
	"github.com/shandysiswandi/otphub/internal/notification/outbound/sms"
	"github.com/shandysiswandi/otphub/internal/notification/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/clock"
	"github.com/shandysiswandi/otphub/internal/pkg/config"
	"github.com/shandysiswandi/otphub/internal/pkg/goroutine"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/mail"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Mail        mail.Mail
	// SMS is nil when no provider is configured; sms templates are then dropped.
	SMS *sms.Twilio
}

func New(dep Dependency) error {
	senders := map[entity.Channel]usecase.Sender{
		entity.ChannelEmail: email.New(dep.Mail, dep.Instrument),
	}
	if dep.SMS != nil {
		senders[entity.ChannelSMS] = dep.SMS
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		Senders:     senders,
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
