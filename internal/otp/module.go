package otp

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otphub/internal/otp/inbound"
	"github.com/shandysiswandi/otphub/internal/otp/outbound/cache"
	"github.com/shandysiswandi/otphub/internal/otp/outbound/db"
	"github.com/shandysiswandi/otphub/internal/otp/outbound/mq"
	"github.com/shandysiswandi/otphub/internal/otp/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/clock"
	"github.com/shandysiswandi/otphub/internal/pkg/config"
	"github.com/shandysiswandi/otphub/internal/pkg/goroutine"
	"github.com/shandysiswandi/otphub/internal/pkg/hash"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
	pkgotp "github.com/shandysiswandi/otphub/internal/pkg/otp"
	"github.com/shandysiswandi/otphub/internal/pkg/router"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Config      config.Config
	Instrument  instrument.Instrumentation
	UUID        uid.StringID
	Clock       clock.Clocker
	Validator   validator.Validator
	Router      *router.Router
	DBConn      *pgxpool.Pool
	CacheConn   redis.Cmdable
	Idempotency idempotency.Idempotency
	Messaging   messaging.Messaging
	Goroutine   *goroutine.Manager
	Hash        hash.Hash
	Generator   pkgotp.Generator
}

func New(dep Dependency) error {
	dbOTP := db.NewDB(dep.DBConn, dep.Instrument)
	cacheOTP := cache.NewCache(dep.CacheConn, dep.Instrument)
	mqOTP := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbOTP,
		RepoCache:     cacheOTP,
		RepoRateLimit: cacheOTP,
		RepoMessaging: mqOTP,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Policy:        usecase.NewPolicy(dep.Config),
		Generator:     dep.Generator,
		Hash:          dep.Hash,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
		inbound.RegisterSweepJob(dep.Ctx, dep.Goroutine, inbound.NewSweepJob(uc, dep.UUID, dep.Instrument), uc.Policy().SweepInterval)
	}

	return nil
}
