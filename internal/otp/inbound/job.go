package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/goroutine"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"go.uber.org/atomic"
)

// SweepJob periodically expires stale active OTPs. A tick that arrives while
// the previous sweep is still running is skipped.
type SweepJob struct {
	uc      uc
	uuid    uid.StringID
	ins     instrument.Instrumentation
	running *atomic.Bool
	skipped *atomic.Int64
}

func NewSweepJob(uc uc, uuid uid.StringID, ins instrument.Instrumentation) *SweepJob {
	return &SweepJob{
		uc:      uc,
		uuid:    uuid,
		ins:     ins,
		running: atomic.NewBool(false),
		skipped: atomic.NewInt64(0),
	}
}

// RegisterSweepJob starts the sweep loop on routine. Every tick runs its sweep
// in its own goroutine so a slow sweep never delays the ticker. An interval of
// zero leaves the sweep disabled.
func RegisterSweepJob(ctx context.Context, routine *goroutine.Manager, job *SweepJob, interval time.Duration) {
	if interval <= 0 {
		slog.InfoContext(ctx, "otp expiry sweep disabled")
		return
	}

	routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(ctx, "Running job for otp expiry sweep", "interval", interval.String())

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pCtx.Done():
				return nil
			case <-ticker.C:
				routine.Go(pCtx, func(ctx context.Context) error {
					job.Run(ctx)
					return nil
				})
			}
		}
	})
}

// Run performs one sweep and reports whether it ran.
func (j *SweepJob) Run(ctx context.Context) bool {
	if !j.running.CompareAndSwap(false, true) {
		skipped := j.skipped.Inc()
		slog.WarnContext(ctx, "skipping otp expiry sweep, previous run still in progress", "skipped_total", skipped)
		return false
	}
	defer j.running.Store(false)

	ctx = instrument.SetCorrelationID(ctx, j.uuid.Generate())
	ctx, span := j.ins.Tracer("otp.inbound.job").Start(ctx, "SweepExpired")
	defer span.End()

	if _, err := j.uc.SweepExpired(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to sweep expired otps", "error", err)
	}

	return true
}
