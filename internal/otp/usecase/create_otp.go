package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/valueobject"
)

type CreateOTPInput struct {
	Identifier string `validate:"required,max=255,identifier"`
	Purpose    string `validate:"required,purpose"`
	Metadata   map[string]any
}

// CreateOTPOutput carries the plaintext code. It is the only place the code
// leaves this package and callers must not log it.
type CreateOTPOutput struct {
	ID            string
	Code          string
	ExpiresAt     time.Time
	ExpiryMinutes int
}

func (s *Usecase) CreateOTP(ctx context.Context, in CreateOTPInput) (*CreateOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "CreateOTP")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	in.Purpose = strings.TrimSpace(in.Purpose)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.consumeRateLimit(ctx, in.Identifier); err != nil {
		return nil, err
	}

	code, err := s.generator.Generate(s.policy.CodeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "length", s.policy.CodeLength, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, entity.NewInternalHashError(err)
	}

	now := s.clock.Now()
	rec := entity.Record{
		ID:         s.uuid.Generate(),
		Identifier: in.Identifier,
		Purpose:    in.Purpose,
		CodeHash:   string(codeHash),
		Status:     entity.StatusActive,
		ExpiresAt:  now.Add(s.policy.ExpiryWindow),
		Metadata:   valueobject.JSONMap(in.Metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	sctx, cancel := s.storeCtx(ctx)
	revoked, err := s.repoDB.CreateActive(sctx, rec)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create active otp", "identifier", rec.Identifier, "purpose", rec.Purpose, "error", err)
		return nil, entity.NewStorageUnavailableError(err)
	}
	if revoked > 0 {
		slog.InfoContext(ctx, "revoked previous active otp", "identifier", rec.Identifier, "purpose", rec.Purpose, "count", revoked)
	}

	cctx, cancel := s.cacheCtx(ctx)
	err = s.repoCache.Put(cctx, rec.Identifier, rec.Purpose, entity.CacheEntry{ID: rec.ID, Hash: rec.CodeHash}, s.policy.ExpiryWindow)
	cancel()
	if err != nil {
		slog.WarnContext(ctx, "failed to cache active otp", "otp_id", rec.ID, "error", err)
	}

	slog.InfoContext(ctx, "otp created", "otp_id", rec.ID, "identifier", rec.Identifier, "purpose", rec.Purpose, "expires_at", rec.ExpiresAt)

	return &CreateOTPOutput{
		ID:            rec.ID,
		Code:          code,
		ExpiresAt:     rec.ExpiresAt,
		ExpiryMinutes: s.policy.ExpiryMinutes(),
	}, nil
}

func (s *Usecase) consumeRateLimit(ctx context.Context, identifier string) error {
	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()

	allowed, retryAfter, err := s.repoRateLimit.CheckAndConsume(cctx, identifier, s.policy.RateLimitWindow, s.policy.RateLimitMax)
	if err != nil {
		if s.policy.RateLimitFailOpen {
			slog.WarnContext(ctx, "rate limiter unavailable, allowing request", "identifier", identifier, "error", err)
			return nil
		}

		slog.ErrorContext(ctx, "rate limiter unavailable, denying request", "identifier", identifier, "error", err)
		return entity.NewStorageUnavailableError(err)
	}

	if !allowed {
		slog.WarnContext(ctx, "otp request rate limited", "identifier", identifier, "retry_after", retryAfter.String())
		return entity.NewRateLimitedError(retryAfter)
	}

	return nil
}

// normalizeIdentifier trims the identifier and lowercases email addresses.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}
