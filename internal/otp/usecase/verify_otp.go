package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Identifier string `validate:"required,max=255,identifier"`
	Code       string `validate:"required,numeric_code,min=4,max=9"`
	Purpose    string `validate:"required,purpose"`
}

type VerifyOTPOutput struct {
	Verified bool
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	now := s.clock.Now()

	rec, err := s.loadVerifiable(ctx, in.Identifier, in.Purpose, now)
	if err != nil {
		return nil, err
	}

	if rec.Attempts >= s.policy.MaxAttempts {
		return nil, s.lockOut(ctx, rec, now)
	}

	if s.hasher.Verify(rec.CodeHash, in.Code) {
		sctx, cancel := s.storeCtx(ctx)
		err := s.repoDB.MarkVerified(sctx, rec.ID, s.policy.MaxAttempts, now)
		cancel()
		if errors.Is(err, goerror.ErrConflict) {
			return nil, s.resolveLostRace(ctx, rec.ID, now)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo mark otp verified", "otp_id", rec.ID, "error", err)
			return nil, entity.NewStorageUnavailableError(err)
		}

		s.invalidate(ctx, rec.Identifier, rec.Purpose)
		slog.InfoContext(ctx, "otp verified", "otp_id", rec.ID, "identifier", rec.Identifier, "purpose", rec.Purpose)

		return &VerifyOTPOutput{Verified: true}, nil
	}

	sctx, cancel := s.storeCtx(ctx)
	attempts, err := s.repoDB.IncrementAttempts(sctx, rec.ID, s.policy.MaxAttempts)
	cancel()
	if errors.Is(err, goerror.ErrConflict) {
		return nil, s.resolveLostRace(ctx, rec.ID, now)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment otp attempts", "otp_id", rec.ID, "error", err)
		return nil, entity.NewStorageUnavailableError(err)
	}

	remaining := s.policy.MaxAttempts - attempts
	slog.WarnContext(ctx, "otp code mismatch", "otp_id", rec.ID, "attempts", attempts, "remaining", remaining)

	s.mirror(ctx, rec, attempts, now)
	return nil, entity.NewInvalidCodeError(remaining)
}

// loadVerifiable finds the record to check. The cached id is tried first but the
// record is always re-read from the store. A stale cache entry falls back to
// the newest active record of the pair.
func (s *Usecase) loadVerifiable(ctx context.Context, identifier, purpose string, now time.Time) (*entity.Record, error) {
	cctx, cancel := s.cacheCtx(ctx)
	entry, err := s.repoCache.Get(cctx, identifier, purpose)
	cancel()

	switch {
	case err == nil:
		sctx, cancel := s.storeCtx(ctx)
		rec, err := s.repoDB.GetByID(sctx, entry.ID)
		cancel()
		if err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get otp by id", "otp_id", entry.ID, "error", err)
			return nil, entity.NewStorageUnavailableError(err)
		}
		if err == nil && rec.IsVerifiable(now) {
			return rec, nil
		}

		s.invalidate(ctx, identifier, purpose)

	case !errors.Is(err, goerror.ErrNotFound):
		slog.WarnContext(ctx, "otp cache unavailable, using store", "identifier", identifier, "error", err)
	}

	sctx, cancel := s.storeCtx(ctx)
	rec, err := s.repoDB.FindLatestActive(sctx, identifier, purpose, now)
	cancel()
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active otp to verify", "identifier", identifier, "purpose", purpose)
		return nil, entity.NewNotFoundOrExpiredError()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find latest active otp", "identifier", identifier, "purpose", purpose, "error", err)
		return nil, entity.NewStorageUnavailableError(err)
	}

	return rec, nil
}

// lockOut revokes a record whose attempts are used up.
func (s *Usecase) lockOut(ctx context.Context, rec *entity.Record, now time.Time) error {
	sctx, cancel := s.storeCtx(ctx)
	err := s.repoDB.Transition(sctx, rec.ID, entity.StatusActive, entity.StatusRevoked, now)
	cancel()
	if err != nil && !errors.Is(err, goerror.ErrConflict) {
		slog.ErrorContext(ctx, "failed to repo revoke exhausted otp", "otp_id", rec.ID, "error", err)
		return entity.NewStorageUnavailableError(err)
	}

	s.invalidate(ctx, rec.Identifier, rec.Purpose)
	slog.WarnContext(ctx, "otp attempts exceeded", "otp_id", rec.ID, "attempts", rec.Attempts)

	return entity.NewAttemptsExceededError()
}

// resolveLostRace explains a rejected increment: either a concurrent call used
// the last attempt, or the record was closed in the meantime.
func (s *Usecase) resolveLostRace(ctx context.Context, id string, now time.Time) error {
	sctx, cancel := s.storeCtx(ctx)
	rec, err := s.repoDB.GetByID(sctx, id)
	cancel()
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get otp by id", "otp_id", id, "error", err)
		return entity.NewStorageUnavailableError(err)
	}

	if err == nil && rec.IsVerifiable(now) && rec.Attempts >= s.policy.MaxAttempts {
		return s.lockOut(ctx, rec, now)
	}

	return entity.NewNotFoundOrExpiredError()
}

// mirror refreshes the cached attempt count for the rest of the expiry window.
func (s *Usecase) mirror(ctx context.Context, rec *entity.Record, attempts int, now time.Time) {
	ttl := rec.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return
	}

	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()

	entry := entity.CacheEntry{ID: rec.ID, Hash: rec.CodeHash, Attempts: attempts}
	if err := s.repoCache.Put(cctx, rec.Identifier, rec.Purpose, entry, ttl); err != nil {
		slog.WarnContext(ctx, "failed to refresh cached otp", "otp_id", rec.ID, "error", err)
	}
}

func (s *Usecase) invalidate(ctx context.Context, identifier, purpose string) {
	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()

	if err := s.repoCache.Invalidate(cctx, identifier, purpose); err != nil {
		slog.WarnContext(ctx, "failed to invalidate cached otp", "identifier", identifier, "purpose", purpose, "error", err)
	}
}
