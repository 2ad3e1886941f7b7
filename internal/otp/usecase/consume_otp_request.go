package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
)

type ConsumeOTPRequestInput struct {
	RequestID  string `validate:"required"`
	Identifier string `validate:"required,max=255,identifier"`
	Purpose    string `validate:"required,purpose"`
	UserName   string
	Metadata   map[string]any
}

// ConsumeOTPRequest issues and notifies a queued request once per RequestID.
//
// A returned error asks the broker for redelivery, so only transient failures
// are returned. Requests that can never succeed are logged and dropped.
func (s *Usecase) ConsumeOTPRequest(ctx context.Context, in ConsumeOTPRequestInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPRequest")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "dropping invalid otp request", "request_id", in.RequestID, "error", err)
		return nil
	}

	err := s.idemp.Exec(ctx, "otp-request:"+in.RequestID, func(ctx context.Context) error {
		_, err := s.issueAndNotify(ctx, in.Identifier, in.Purpose, in.UserName, in.Metadata)
		return err
	}, idempotency.WithLockDuration(s.policy.RequestLock()))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "skipping duplicate otp request", "request_id", in.RequestID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		// the claim holder may still crash, so the broker must redeliver
		slog.WarnContext(ctx, "otp request claimed by another worker, will retry", "request_id", in.RequestID)
		return err
	case errors.Is(err, entity.ErrRateLimited):
		slog.WarnContext(ctx, "dropping rate limited otp request", "request_id", in.RequestID, "identifier", in.Identifier)
		return nil
	case isTransient(err):
		slog.ErrorContext(ctx, "failed to process otp request, will retry", "request_id", in.RequestID, "error", err)
		return err
	default:
		slog.ErrorContext(ctx, "dropping otp request", "request_id", in.RequestID, "error", err)
		return nil
	}
}

func isTransient(err error) bool {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		return true
	}

	return gerr.Type() == goerror.TypeServer
}
