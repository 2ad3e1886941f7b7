package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	pgCodeUniqueViolation      = "23505"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"

	// one active row per (identifier, purpose), see db/migrations/0001_create_otps.up.sql
	constraintActivePair = "uq_otps_active_identifier_purpose"
)

const recordColumns = `id, identifier, purpose, code_hash, status, attempts, expires_at, verified_at, metadata, created_at, updated_at`

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// - 23505 unique violation → goerror.ErrConflict
// - 40001 serialization_failure, 40P01 deadlock_detected → retried by CreateActive first
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation {
		return goerror.ErrConflict
	}

	return err
}

// isRetryable reports whether a failed revoke+insert may succeed when run again.
// A unique violation on the active pair means a concurrent create committed first.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected:
		return true
	case pgCodeUniqueViolation:
		return pgErr.ConstraintName == constraintActivePair
	default:
		return false
	}
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func scanRecord(row pgx.Row) (*entity.Record, error) {
	var (
		rec    entity.Record
		status string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Identifier,
		&rec.Purpose,
		&rec.CodeHash,
		&status,
		&rec.Attempts,
		&rec.ExpiresAt,
		&rec.VerifiedAt,
		&rec.Metadata,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rec.Status = entity.Status(status)
	return &rec, nil
}
