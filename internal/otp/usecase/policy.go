package usecase

import (
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/config"
	"github.com/shandysiswandi/otphub/internal/pkg/otp"
)

const (
	defaultCodeLength        = 6
	defaultExpiryWindow      = 5 * time.Minute
	defaultMaxAttempts       = 3
	defaultRateLimitWindow   = 15 * time.Minute
	defaultRateLimitRequests = 5
	defaultStoreTimeout      = 3 * time.Second
	defaultCacheTimeout      = 200 * time.Millisecond
	defaultSweepInterval     = time.Minute
)

// Policy is the resolved OTP configuration. Fallbacks are applied only here.
type Policy struct {
	CodeLength        int
	ExpiryWindow      time.Duration
	MaxAttempts       int
	RateLimitWindow   time.Duration
	RateLimitMax      int
	RateLimitFailOpen bool
	StoreTimeout      time.Duration
	CacheTimeout      time.Duration
	// SweepInterval of zero disables the expiry sweep.
	SweepInterval time.Duration
}

func NewPolicy(cfg config.Config) Policy {
	p := Policy{
		CodeLength:        positiveOr(cfg.GetInt("modules.otp.code_length"), defaultCodeLength),
		ExpiryWindow:      positiveOr(cfg.GetMinute("modules.otp.expiry_minutes"), defaultExpiryWindow),
		MaxAttempts:       positiveOr(cfg.GetInt("modules.otp.max_attempts"), defaultMaxAttempts),
		RateLimitWindow:   positiveOr(cfg.GetMinute("modules.otp.rate_limit.window_minutes"), defaultRateLimitWindow),
		RateLimitMax:      positiveOr(cfg.GetInt("modules.otp.rate_limit.max_requests"), defaultRateLimitRequests),
		RateLimitFailOpen: cfg.GetBool("modules.otp.rate_limit.fail_open"),
		StoreTimeout:      positiveOr(cfg.GetMillisecond("modules.otp.store_timeout_ms"), defaultStoreTimeout),
		CacheTimeout:      positiveOr(cfg.GetMillisecond("modules.otp.cache_timeout_ms"), defaultCacheTimeout),
		SweepInterval:     defaultSweepInterval,
	}

	p.CodeLength = min(max(p.CodeLength, otp.MinLength), otp.MaxLength)

	if cfg.IsSet("modules.otp.sweep_interval_seconds") {
		p.SweepInterval = max(cfg.GetSecond("modules.otp.sweep_interval_seconds"), 0)
	}

	return p
}

// ExpiryMinutes is the expiry window in whole minutes, as shown to users.
func (p Policy) ExpiryMinutes() int {
	return int(p.ExpiryWindow / time.Minute)
}

// RequestLock bounds how long a queued request stays claimed by one worker.
// It spans the rate limit check, the store write, the cache write and the
// notification publish, so a crashed worker frees the request for redelivery.
func (p Policy) RequestLock() time.Duration {
	return 2 * (p.StoreTimeout + p.CacheTimeout)
}

func positiveOr[T int | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}
	return fallback
}
