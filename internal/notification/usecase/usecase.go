package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/clock"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetActiveTemplate(ctx context.Context, name string, ch entity.Channel) (*entity.Template, error)
	CreateNotification(ctx context.Context, n entity.CreateNotification) error
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string, at time.Time) error
}

// Sender delivers a rendered message over one channel.
type Sender interface {
	Provider() string
	Send(ctx context.Context, d entity.Delivery) error
}

type Usecase struct {
	repoDB    repoDB
	senders   map[entity.Channel]Sender
	idemp     idempotency.Idempotency
	validator validator.Validator
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Senders     map[entity.Channel]Sender
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		senders:   dep.Senders,
		idemp:     dep.Idempotency,
		validator: dep.Validator,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
