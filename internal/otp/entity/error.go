package entity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
)

var (
	ErrRateLimited        = errors.New("otp: rate limited")
	ErrNotFoundOrExpired  = errors.New("otp: not found or expired")
	ErrAttemptsExceeded   = errors.New("otp: attempts exceeded")
	ErrInvalidCode        = errors.New("otp: invalid code")
	ErrStorageUnavailable = errors.New("otp: storage unavailable")
	ErrInternalHash       = errors.New("otp: hash failure")
)

const (
	FieldRetryAfterSeconds = "retry_after_seconds"
	FieldRemainingAttempts = "remaining_attempts"
)

// NewRateLimitedError reports a denied request. The wait is rounded up to whole seconds, minimum 1.
func NewRateLimitedError(retryAfter time.Duration) error {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}

	return goerror.WrapBusiness(ErrRateLimited, "Too many OTP requests, please try again later",
		goerror.CodeTooManyRequest, FieldRetryAfterSeconds, strconv.Itoa(secs))
}

func NewNotFoundOrExpiredError() error {
	return goerror.WrapBusiness(ErrNotFoundOrExpired, "OTP not found or expired", goerror.CodeNotFound)
}

func NewAttemptsExceededError() error {
	return goerror.WrapBusiness(ErrAttemptsExceeded, "Maximum verification attempts exceeded", goerror.CodeForbidden)
}

func NewInvalidCodeError(remaining int) error {
	return goerror.WrapBusiness(ErrInvalidCode, "Invalid OTP",
		goerror.CodeInvalidInput, FieldRemainingAttempts, strconv.Itoa(max(remaining, 0)))
}

func NewStorageUnavailableError(err error) error {
	return goerror.NewUnavailable(fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
}

func NewInternalHashError(err error) error {
	return goerror.NewServer(fmt.Errorf("%w: %w", ErrInternalHash, err))
}

// ErrorField returns a detail field attached to a domain error, if any.
func ErrorField(err error, key string) (string, bool) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		return "", false
	}

	v, ok := gerr.Fields()[key]
	return v, ok
}
