package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyActivePrefix    = "otp:active:"
	keyRateLimitPrefix = "otp:ratelimit:"
)

func activeKey(identifier, purpose string) string {
	return keyActivePrefix + identifier + ":" + purpose
}

func rateLimitKey(identifier string) string {
	return keyRateLimitPrefix + identifier
}

// Cache mirrors active records and counts requests per identifier on Redis.
type Cache struct {
	client redis.Cmdable
	ins    instrument.Instrumentation
}

func NewCache(client redis.Cmdable, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Cache) Put(ctx context.Context, identifier, purpose string, entry entity.CacheEntry, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "Put")
	defer func() { s.endSpan(span, err) }()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, activeKey(identifier, purpose), data, ttl).Err()
}

// Get returns the mirrored entry of the pair, or goerror.ErrNotFound on a miss.
func (s *Cache) Get(ctx context.Context, identifier, purpose string) (_ *entity.CacheEntry, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	data, err := s.client.Get(ctx, activeKey(identifier, purpose)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var entry entity.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *Cache) Invalidate(ctx context.Context, identifier, purpose string) (err error) {
	ctx, span := s.startSpan(ctx, "Invalidate")
	defer func() { s.endSpan(span, err) }()

	return s.client.Del(ctx, activeKey(identifier, purpose)).Err()
}
