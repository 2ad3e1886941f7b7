package cache

import (
	"context"
	"time"
)

// CheckAndConsume counts one request for identifier in a fixed window.
//
// The counter gets its expiry on the first increment. A counter found without
// expiry is given one again so it can never outlive the window for good.
// When the count is above limit the request is denied and retryAfter holds the
// remaining window.
func (s *Cache) CheckAndConsume(ctx context.Context, identifier string, window time.Duration, limit int) (allowed bool, retryAfter time.Duration, err error) {
	ctx, span := s.startSpan(ctx, "CheckAndConsume")
	defer func() { s.endSpan(span, err) }()

	key := rateLimitKey(identifier)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
		remaining = window
	}

	if incr.Val() > int64(limit) {
		return false, remaining, nil
	}

	return true, 0, nil
}
