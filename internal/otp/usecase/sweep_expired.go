package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
)

// SweepExpired marks active records past their expiry as expired.
// It is idempotent and safe to run next to verification, whose updates are
// guarded on the active status.
func (s *Usecase) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	n, err := s.repoDB.ExpireStale(sctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo expire stale otps", "error", err)
		return 0, entity.NewStorageUnavailableError(err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "expired stale otps", "count", n)
	}

	return n, nil
}
