package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/clock"
	"github.com/shandysiswandi/otphub/internal/pkg/hash"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/otp"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type OTPRequestEvent struct {
	RequestID  string
	Identifier string
	Purpose    string
	UserName   string
	Metadata   map[string]any
}

type NotificationEvent struct {
	RequestID    string
	Recipient    string
	TemplateName string
	Data         map[string]any
}

type repoMessaging interface {
	PublishOTPRequest(ctx context.Context, msg OTPRequestEvent) error
	PublishNotification(ctx context.Context, msg NotificationEvent) error
}

type repoDB interface {
	CreateActive(ctx context.Context, rec entity.Record) (int64, error)
	RevokeAllActive(ctx context.Context, identifier, purpose string, at time.Time) (int64, error)
	GetByID(ctx context.Context, id string) (*entity.Record, error)
	FindLatestActive(ctx context.Context, identifier, purpose string, now time.Time) (*entity.Record, error)
	IncrementAttempts(ctx context.Context, id string, maxAttempts int) (int, error)
	MarkVerified(ctx context.Context, id string, maxAttempts int, at time.Time) error
	Transition(ctx context.Context, id string, from, to entity.Status, at time.Time) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type repoCache interface {
	Put(ctx context.Context, identifier, purpose string, entry entity.CacheEntry, ttl time.Duration) error
	Get(ctx context.Context, identifier, purpose string) (*entity.CacheEntry, error)
	Invalidate(ctx context.Context, identifier, purpose string) error
}

type repoRateLimit interface {
	CheckAndConsume(ctx context.Context, identifier string, window time.Duration, limit int) (bool, time.Duration, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoRateLimit repoRateLimit
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	policy        Policy
	generator     otp.Generator
	hasher        hash.Hash
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoRateLimit repoRateLimit
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Policy        Policy
	Generator     otp.Generator
	Hash          hash.Hash
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoRateLimit: dep.RepoRateLimit,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		policy:        dep.Policy,
		generator:     dep.Generator,
		hasher:        dep.Hash,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

// Policy exposes the resolved settings, e.g. for the sweep job interval.
func (s *Usecase) Policy() Policy {
	return s.policy
}

func (s *Usecase) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.policy.StoreTimeout)
}

func (s *Usecase) cacheCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.policy.CacheTimeout)
}
