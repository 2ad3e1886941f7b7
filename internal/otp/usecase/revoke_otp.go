package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
)

type RevokeOTPInput struct {
	Identifier string `validate:"required,max=255,identifier"`
	Purpose    string `validate:"required,purpose"`
}

type RevokeOTPOutput struct {
	Revoked int64
}

// RevokeOTP closes every active record of the pair, e.g. when the user cancels a flow.
func (s *Usecase) RevokeOTP(ctx context.Context, in RevokeOTPInput) (*RevokeOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RevokeOTP")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	in.Purpose = strings.TrimSpace(in.Purpose)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeCtx(ctx)
	n, err := s.repoDB.RevokeAllActive(sctx, in.Identifier, in.Purpose, s.clock.Now())
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke active otps", "identifier", in.Identifier, "purpose", in.Purpose, "error", err)
		return nil, entity.NewStorageUnavailableError(err)
	}

	s.invalidate(ctx, in.Identifier, in.Purpose)

	return &RevokeOTPOutput{Revoked: n}, nil
}
